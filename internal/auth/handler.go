// Package auth is the optional passphrase gate for a personal library:
// one configured passphrase, exchanged for a bearer token per device.
// With no passphrase configured the library stays open.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Tokens         TokenService
	passphraseHash []byte
}

// NewHandler hashes the configured passphrase once at startup. An
// empty passphrase disables the gate entirely.
func NewHandler(passphrase string, tokens TokenService) (*Handler, error) {
	h := &Handler{Tokens: tokens}
	if passphrase == "" {
		return h, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash passphrase: %w", err)
	}
	h.passphraseHash = hash
	return h, nil
}

func (h *Handler) Enabled() bool {
	return len(h.passphraseHash) > 0
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
}

type loginReq struct {
	Passphrase string `json:"passphrase"`
	Device     string `json:"device"`
}

func (h *Handler) login(c *gin.Context) {
	if !h.Enabled() {
		c.JSON(http.StatusOK, gin.H{"message": "auth disabled"})
		return
	}

	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passphraseHash, []byte(req.Passphrase)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid passphrase"})
		return
	}

	device := strings.TrimSpace(req.Device)
	if device == "" {
		device = "reader"
	}

	token, exp, err := h.Tokens.Sign(device)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token sign failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp,
		"device":     device,
	})
}
