// attachment_handler.go
package email

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"FlightRiskPricing/src/datasource/file"
)

// DatasetAttachmentHandler saves dataset attachments from matching
// mail into the data directory. Handling is idempotent per mail UID,
// so a message that stays unread across checks is extracted once.
type DatasetAttachmentHandler struct {
	TargetSubject string
	DataDir       string
	processedUIDs map[uint32]bool
	mu            sync.RWMutex
}

func NewDatasetAttachmentHandler(subject, dataDir string) *DatasetAttachmentHandler {
	return &DatasetAttachmentHandler{
		TargetSubject: subject,
		DataDir:       dataDir,
		processedUIDs: make(map[uint32]bool),
	}
}

// IsProcessed reports whether the mail was already extracted.
func (h *DatasetAttachmentHandler) IsProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

func (h *DatasetAttachmentHandler) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// Handle saves every dataset attachment of the mail and returns the
// saved paths. A mail is only marked processed once at least one
// dataset file was written; mails without dataset attachments stay
// eligible for a retry.
func (h *DatasetAttachmentHandler) Handle(email *Email) ([]string, error) {
	if h.IsProcessed(email.UID) {
		return nil, nil
	}

	if !strings.Contains(email.Subject, h.TargetSubject) {
		return nil, nil
	}

	if err := file.EnsureDir(h.DataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare data dir: %w", err)
	}

	var saved []string
	for _, attachment := range email.Attachments {
		if !file.IsDatasetFile(attachment.Filename) {
			continue
		}

		// Attachment names come off the wire, so only the base name
		// is trusted.
		path := filepath.Join(h.DataDir, filepath.Base(attachment.Filename))
		if err := os.WriteFile(path, attachment.Content, 0644); err != nil {
			return saved, fmt.Errorf("failed to save attachment %s: %w", attachment.Filename, err)
		}
		saved = append(saved, path)
	}

	if len(saved) > 0 {
		h.markAsProcessed(email.UID)
	}
	return saved, nil
}
