// client.go
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"mime"
	"net/smtp"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/jordan-wright/email"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"FlightRiskPricing/src/config"
	"FlightRiskPricing/src/storage"
)

/******************** Constants ********************/
const (
	MaxFetchMessages   = 100            // cap per fetch to bound memory
	FetchBufferSize    = 10             // message channel buffer
	RecentMailDuration = 24 * time.Hour // how far back a mail counts as new
)

/******************** Interfaces ********************/

// MailService is the mailbox access contract.
type MailService interface {
	// Connect establishes the mailbox connection.
	Connect() error

	// Disconnect tears the connection down.
	Disconnect()

	// FetchUnreadEmails returns recent unread mail.
	FetchUnreadEmails() ([]*Email, error)
}

// EmailHandler consumes one mail and reports which attachment files it
// extracted.
type EmailHandler interface {
	Handle(email *Email) ([]string, error)
}

/******************** Data structures ********************/

// Email is one parsed mailbox message.
type Email struct {
	UID         uint32        // IMAP UID
	Date        time.Time     // send time
	From        string        // decoded sender
	Subject     string        // decoded subject
	Attachments []*Attachment // attachment list
}

// Attachment is one decoded mail attachment.
type Attachment struct {
	Filename string
	Content  []byte
}

/******************** IMAP client ********************/

// EmailClient implements MailService over IMAP with TLS.
type EmailClient struct {
	server    string
	username  string
	password  string
	client    *client.Client
	mu        sync.Mutex
	connected bool
}

// NewEmailClient builds a client for server addresses of the form
// "imap.example.com:993".
func NewEmailClient(server, username, password string) *EmailClient {
	return &EmailClient{
		server:   server,
		username: username,
		password: password,
	}
}

// Connect dials and authenticates. An existing connection is probed
// with a capability request and reused when still alive.
func (s *EmailClient) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		if _, err := s.client.Capability(); err == nil {
			return nil
		}
		s.client.Logout()
		s.client = nil
	}

	c, err := client.DialTLS(s.server, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", s.server, err)
	}

	if err := c.Login(s.username, s.password); err != nil {
		c.Logout()
		return fmt.Errorf("login failed: %w", err)
	}

	s.client = c
	s.connected = true
	return nil
}

// Disconnect logs out and resets the connection state.
func (s *EmailClient) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.client.Logout()
		s.client = nil
	}
	s.connected = false
}

// FetchUnreadEmails searches INBOX for unseen mail younger than
// RecentMailDuration and parses each match.
func (s *EmailClient) FetchUnreadEmails() ([]*Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, fmt.Errorf("not connected to mail server")
	}

	if _, err := s.client.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = time.Now().Add(-RecentMailDuration)

	ids, err := s.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("mail search failed: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	if len(ids) > MaxFetchMessages {
		ids = ids[:MaxFetchMessages]
	}

	return s.fetchMessages(ids)
}

// fetchMessages downloads and parses the given message ids.
func (s *EmailClient) fetchMessages(ids []uint32) ([]*Email, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{
		imap.FetchEnvelope,
		imap.FetchFlags,
		imap.FetchInternalDate,
		imap.FetchUid,
		section.FetchItem(),
	}

	messages := make(chan *imap.Message, FetchBufferSize)
	done := make(chan error, 1)

	go func() {
		done <- s.client.Fetch(seqset, items, messages)
	}()

	var emails []*Email
	for msg := range messages {
		email, err := s.parseEmail(msg, section)
		if err != nil {
			log.Printf("failed to parse mail: %v", err)
			continue
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("mail fetch failed: %w", err)
	}

	return emails, nil
}

/******************** Mail parsing ********************/

// parseEmail converts one raw IMAP message into an Email.
func (s *EmailClient) parseEmail(msg *imap.Message, section *imap.BodySectionName) (*Email, error) {
	r := msg.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("mail body is empty")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	header := mr.Header
	date, _ := header.Date() // an unparseable date does not block the rest

	email := &Email{
		UID:     msg.Uid,
		Date:    date,
		From:    decodeHeader(header.Get("From")),
		Subject: decodeHeader(header.Get("Subject")),
	}

	if err := s.parseEmailParts(mr, email); err != nil {
		return nil, err
	}

	return email, nil
}

// parseEmailParts walks the MIME parts collecting attachments.
func (s *EmailClient) parseEmailParts(mr *mail.Reader, email *Email) error {
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip parts that fail to parse
		}

		if h, ok := p.Header.(*mail.AttachmentHeader); ok {
			if err := s.parseAttachment(h, p.Body, email); err != nil {
				log.Printf("failed to parse attachment: %v", err)
			}
		}
	}
	return nil
}

// parseAttachment buffers one attachment body.
func (s *EmailClient) parseAttachment(h *mail.AttachmentHeader, body io.Reader, email *Email) error {
	filename, err := h.Filename()
	if err != nil || filename == "" {
		return fmt.Errorf("attachment has no usable filename")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("failed to read attachment body: %w", err)
	}

	email.Attachments = append(email.Attachments, &Attachment{
		Filename: decodeHeader(filename),
		Content:  buf.Bytes(),
	})
	return nil
}

/******************** Report delivery ********************/

// SendReport mails a rendered report, optionally with attachment
// files, to the configured recipients. When no recipients are
// configured the ingest mailbox receives the report.
func SendReport(c *config.Config, subject, body string, attachments []string) error {
	from := c.SendEmail.Username

	to := c.SendEmail.Recipients
	if len(to) == 0 {
		to = []string{c.Email.Username}
	}
	if subject == "" {
		subject = c.SendEmail.Subject
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("Flight Risk Reports <%s>", from)
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	for _, path := range attachments {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("report attachment missing: %s", path)
		}
		if _, err := e.AttachFile(path); err != nil {
			return fmt.Errorf("failed to attach %s: %w", path, err)
		}
	}

	smtpAddr := c.SendEmail.Server
	if !strings.Contains(smtpAddr, ":") {
		smtpAddr += ":465"
	}
	host := strings.Split(smtpAddr, ":")[0]

	if err := e.SendWithTLS(
		smtpAddr,
		smtp.PlainAuth("", from, c.SendEmail.Password, host),
		&tls.Config{ServerName: host},
	); err != nil {
		return fmt.Errorf("failed to send report via %s: %w", smtpAddr, err)
	}
	return nil
}

/******************** Helpers ********************/

// decodeHeader decodes =?charset?encoding?text?= encoded words.
func decodeHeader(header string) string {
	decoder := mime.WordDecoder{
		CharsetReader: charsetReader,
	}

	decoded, err := decoder.DecodeHeader(header)
	if err != nil {
		return header // fall back to the raw header
	}
	return decoded
}

// charsetReader converts GBK and GB2312 payloads to UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	charset = strings.ToLower(charset)
	switch charset {
	case "gbk", "gb2312":
		return transform.NewReader(input, simplifiedchinese.GBK.NewDecoder()), nil
	default:
		return input, nil
	}
}

/******************** Ingest flow ********************/

// CheckAndProcessEmails connects, fetches recent unread mail and
// returns the newest message whose subject contains subjectKeyword.
// A nil mail with a nil error means nothing new arrived.
func CheckAndProcessEmails(mailService MailService, subjectKeyword string, logger *storage.Logger) (*Email, error) {
	startTime := time.Now()
	logger.Info("checking mailbox for new datasets...")

	if err := mailService.Connect(); err != nil {
		return nil, fmt.Errorf("mailbox connect failed: %w", err)
	}
	defer mailService.Disconnect()

	emails, err := mailService.FetchUnreadEmails()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unread mail: %w", err)
	}

	if len(emails) == 0 {
		logger.Info("no new mail")
		return nil, nil
	}

	target := filterLatestTargetEmail(emails, subjectKeyword)
	if target == nil {
		logger.Info("no mail with subject keyword " + subjectKeyword)
		return nil, nil
	}

	logger.Info(fmt.Sprintf("mailbox check finished in %v", time.Since(startTime)))
	return target, nil
}

// filterLatestTargetEmail returns the newest mail whose subject
// contains keyword, or nil when none match.
func filterLatestTargetEmail(emails []*Email, keyword string) *Email {
	var targetEmails []*Email
	for _, email := range emails {
		if strings.Contains(email.Subject, keyword) {
			targetEmails = append(targetEmails, email)
		}
	}

	if len(targetEmails) == 0 {
		return nil
	}

	sort.Slice(targetEmails, func(i, j int) bool {
		return targetEmails[i].Date.After(targetEmails[j].Date)
	})

	return targetEmails[0]
}
