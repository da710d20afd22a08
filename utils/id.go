package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewFileID retourne un identifiant aléatoire de 128 bits en 32 caractères hexa
// (même forme que les noms de fichiers temporaires des rapports).
func NewFileID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// RandomHex retourne n octets aléatoires encodés en hexa (sels de mot de passe).
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
