package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"onmydesk/api"
	"onmydesk/auth"
	"onmydesk/logging"
	"onmydesk/utils"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logFile := utils.LogToFile("api.log")
		defer logFile.Close()

		a, err := loadApp(cmd.Context(), "report.log", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		logDir := utils.ResolvePath(a.cfg.LogDir)
		accessLog, err := logging.NewLogger(logDir, "access.log")
		if err != nil {
			return err
		}
		defer accessLog.Close()
		loginLog, err := logging.NewLogger(logDir, "login.log")
		if err != nil {
			return err
		}
		defer loginLog.Close()

		srv := &api.Server{
			Config:    a.cfg.Server,
			Reports:   a.reports,
			Jobs:      a.store,
			Runner:    a.runner(),
			Links:     a.storage,
			Metrics:   a.metrics,
			AccessLog: accessLog,
			LoginLog:  loginLog,
		}
		users, err := auth.LoadUsers(a.cfg.Server.UserFile)
		if err != nil {
			return err
		}
		srv.SetUsers(users)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGHUP)
		defer signal.Stop(sigs)
		go func() {
			for range sigs {
				log.Println("Reloading users...")
				users, err := auth.LoadUsers(a.cfg.Server.UserFile)
				if err != nil {
					log.Printf("Failed %s: %v", a.cfg.Server.UserFile, err)
					continue
				}
				srv.SetUsers(users)
			}
		}()

		log.Printf("Server started listening on %s ...", a.cfg.Server.Listen)
		return api.StartServer(cmd.Context(), a.cfg.Server.Listen, srv.Handler())
	},
}
