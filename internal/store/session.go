package store

import (
	"bytes"
	"encoding/json"
	"log"
	"os"

	"github.com/natefinch/atomic"

	"github.com/Bloorize/timetracker/internal/models"
)

// The session cache keeps the user signed in across restarts, the way the
// web client kept its session in localStorage. Losing it is harmless, the
// user just signs in again, so cache failures are logged and ignored.

func (c *Client) loadSession() {
	if c.sessionPath == "" {
		return
	}

	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("reading session cache: %v", err)
		}
		return
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		log.Printf("corrupt session cache, ignoring: %v", err)
		return
	}
	if session.AccessToken == "" || session.User.ID == "" {
		return
	}

	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()
}

func (c *Client) saveSession(s models.Session) {
	if c.sessionPath == "" {
		return
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		log.Printf("encoding session cache: %v", err)
		return
	}
	if err := atomic.WriteFile(c.sessionPath, bytes.NewReader(data)); err != nil {
		log.Printf("writing session cache: %v", err)
	}
}

func (c *Client) dropSession() {
	if c.sessionPath == "" {
		return
	}
	if err := os.Remove(c.sessionPath); err != nil && !os.IsNotExist(err) {
		log.Printf("removing session cache: %v", err)
	}
}
