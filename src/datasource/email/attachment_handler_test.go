package email

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func datasetMail(uid uint32, subject string, attachments ...*Attachment) *Email {
	return &Email{
		UID:         uid,
		Date:        time.Now(),
		Subject:     subject,
		Attachments: attachments,
	}
}

func TestHandleSavesDatasetAttachments(t *testing.T) {
	dir := t.TempDir()
	h := NewDatasetAttachmentHandler("dataset", dir)

	mail := datasetMail(7, "weekly flight dataset",
		&Attachment{Filename: "flights.csv", Content: []byte("a,b\n1,2\n")},
		&Attachment{Filename: "flights.xlsx", Content: []byte{0x50, 0x4b}},
		&Attachment{Filename: "readme.pdf", Content: []byte("skip")},
	)

	saved, err := h.Handle(mail)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d files, want 2: %v", len(saved), saved)
	}

	content, err := os.ReadFile(filepath.Join(dir, "flights.csv"))
	if err != nil {
		t.Fatalf("saved csv unreadable: %v", err)
	}
	if string(content) != "a,b\n1,2\n" {
		t.Errorf("csv content = %q", content)
	}
	if _, err := os.Stat(filepath.Join(dir, "readme.pdf")); !os.IsNotExist(err) {
		t.Error("non-dataset attachment was saved")
	}
	if !h.IsProcessed(7) {
		t.Error("mail with saved datasets not marked processed")
	}
}

func TestHandleIsIdempotentPerUID(t *testing.T) {
	dir := t.TempDir()
	h := NewDatasetAttachmentHandler("dataset", dir)

	mail := datasetMail(7, "dataset", &Attachment{Filename: "flights.csv", Content: []byte("v1")})
	if _, err := h.Handle(mail); err != nil {
		t.Fatal(err)
	}

	// The same unread mail fetched again must not rewrite files.
	mail.Attachments[0].Content = []byte("v2")
	saved, err := h.Handle(mail)
	if err != nil {
		t.Fatal(err)
	}
	if saved != nil {
		t.Errorf("second handle saved %v, want nothing", saved)
	}

	content, _ := os.ReadFile(filepath.Join(dir, "flights.csv"))
	if string(content) != "v1" {
		t.Errorf("file rewritten on repeat handling: %q", content)
	}
}

func TestHandleSkipsOtherSubjects(t *testing.T) {
	h := NewDatasetAttachmentHandler("dataset", t.TempDir())

	mail := datasetMail(9, "meeting notes", &Attachment{Filename: "flights.csv", Content: []byte("x")})
	saved, err := h.Handle(mail)
	if err != nil {
		t.Fatal(err)
	}
	if saved != nil {
		t.Errorf("attachment saved for unmatched subject: %v", saved)
	}
	if h.IsProcessed(9) {
		t.Error("unmatched mail marked processed")
	}
}

func TestHandleWithoutDatasetsAllowsRetry(t *testing.T) {
	h := NewDatasetAttachmentHandler("dataset", t.TempDir())

	mail := datasetMail(11, "dataset", &Attachment{Filename: "notes.txt", Content: []byte("x")})
	if _, err := h.Handle(mail); err != nil {
		t.Fatal(err)
	}
	if h.IsProcessed(11) {
		t.Error("mail without dataset attachments marked processed")
	}
}

func TestHandleStripsAttachmentPaths(t *testing.T) {
	dir := t.TempDir()
	h := NewDatasetAttachmentHandler("dataset", dir)

	mail := datasetMail(13, "dataset", &Attachment{Filename: "../escape.csv", Content: []byte("x")})
	saved, err := h.Handle(mail)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0] != filepath.Join(dir, "escape.csv") {
		t.Errorf("saved = %v, want base name inside data dir", saved)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.csv")); err != nil {
		t.Errorf("expected file inside data dir: %v", err)
	}
}
