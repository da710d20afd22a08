package auth

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"onmydesk/config"
	"onmydesk/utils"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

type UsersFile struct {
	Users map[string]UserInfo `yaml:"users"`
}

type UserInfo struct {
	Hash  string `yaml:"hash"`
	Salt  string `yaml:"salt"`
	Admin bool   `yaml:"admin"`
}

// LoadUsers lit le fichier utilisateurs (relatif à la racine du projet).
// Un fichier absent donne une liste vide.
func LoadUsers(file string) (*UsersFile, error) {
	uf := &UsersFile{Users: map[string]UserInfo{}}
	data, err := os.ReadFile(utils.ResolvePath(file))
	if os.IsNotExist(err) {
		return uf, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, uf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	if uf.Users == nil {
		uf.Users = map[string]UserInfo{}
	}
	return uf, nil
}

func SaveUsers(file string, uf *UsersFile) error {
	out, err := yaml.Marshal(uf)
	if err != nil {
		return err
	}
	return os.WriteFile(utils.ResolvePath(file), out, 0600)
}

// Add hashes password with a fresh salt and stores the user.
func (uf *UsersFile) Add(srv config.ServerConfig, username, password string, admin bool) error {
	if _, exists := uf.Users[username]; exists {
		return fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	salt := utils.RandomHex(8)
	hash, err := ApplyHashMacro(srv.HashMacro, password, username, salt, srv.Salt)
	if err != nil {
		return err
	}
	uf.Users[username] = UserInfo{Hash: hash, Salt: salt, Admin: admin}
	return nil
}

// Names returns the user names, sorted.
func (uf *UsersFile) Names() []string {
	out := make([]string, 0, len(uf.Users))
	for name := range uf.Users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Authenticate checks a password against the stored hash.
func (uf *UsersFile) Authenticate(srv config.ServerConfig, username, password string) (UserInfo, error) {
	u, ok := uf.Users[username]
	if !ok {
		return UserInfo{}, ErrInvalidCredentials
	}
	hash, err := ApplyHashMacro(srv.HashMacro, password, username, u.Salt, srv.Salt)
	if err != nil {
		return UserInfo{}, err
	}
	if hash != u.Hash {
		return UserInfo{}, ErrInvalidCredentials
	}
	return u, nil
}

var hashers = map[string]func(string) string{
	"{sha256}": sha256Hash,
	"{sha1}":   sha1Hash,
	"{md5}":    md5Hash,
	"{clear}":  func(s string) string { return s },
}

// ApplyHashMacro évalue une macro du type {sha256}({password}{salt}{globalsalt}).
func ApplyHashMacro(macro, password, user, userSalt, globalSalt string) (string, error) {
	macro = strings.TrimSpace(macro)
	for prefix, hash := range hashers {
		if !strings.HasPrefix(macro, prefix) {
			continue
		}
		plain := strings.NewReplacer(
			"{password}", password,
			"{user}", user,
			"{salt}", userSalt,
			"{globalsalt}", globalSalt,
		).Replace(extractBetween(macro, prefix+"(", ")"))
		return hash(plain), nil
	}
	return "", errors.New("unsupported hash macro")
}

func extractBetween(str, start, end string) string {
	a := strings.Index(str, start)
	if a == -1 {
		return ""
	}
	a += len(start)
	b := strings.LastIndex(str, end)
	if b == -1 || b <= a {
		return ""
	}
	return str[a:b]
}

func sha256Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
func sha1Hash(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}
func md5Hash(s string) string {
	h := md5.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}
