package mailer

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"sort"
	"strings"
	"time"
)

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), addr)
}

func newMessageID(domain string) string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return fmt.Sprintf("<%s@%s>", hex.EncodeToString(b), domain)
}

func randomBoundary() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return "stakd-" + hex.EncodeToString(b)
}

func validate(e Email) error {
	switch {
	case len(e.To) == 0:
		return errors.New("mailer: at least one recipient required")
	case e.From == "":
		return errors.New("mailer: from address required")
	case e.Subject == "":
		return errors.New("mailer: subject required")
	case e.TextBody == "" && e.HTMLBody == "":
		return errors.New("mailer: text or html body required")
	}
	return nil
}

// buildMIMEMessage renders e as an RFC 5322 message. Bodies are
// quoted-printable so long HTML lines survive SMTP line limits.
func buildMIMEMessage(e Email, messageIDDomain string, now time.Time) ([]byte, error) {
	if err := validate(e); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", newMessageID(messageIDDomain))
	header("From", formatAddress(e.FromName, e.From))
	header("To", strings.Join(e.To, ", "))
	if len(e.Cc) > 0 {
		header("Cc", strings.Join(e.Cc, ", "))
	}
	if e.ReplyTo != "" {
		header("Reply-To", e.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", e.Subject))
	header("MIME-Version", "1.0")

	keys := make([]string, 0, len(e.Headers))
	for k, v := range e.Headers {
		if k != "" && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		header(k, e.Headers[k])
	}

	if e.TextBody != "" && e.HTMLBody != "" {
		boundary := randomBoundary()
		header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
		b.WriteString("\r\n")
		for _, part := range []struct{ ctype, body string }{
			{"text/plain", e.TextBody},
			{"text/html", e.HTMLBody},
		} {
			fmt.Fprintf(&b, "--%s\r\n", boundary)
			if err := writePart(&b, part.ctype, part.body); err != nil {
				return nil, err
			}
		}
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
		return b.Bytes(), nil
	}

	ctype, body := "text/plain", e.TextBody
	if e.HTMLBody != "" {
		ctype, body = "text/html", e.HTMLBody
	}
	if err := writePart(&b, ctype, body); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func writePart(b *bytes.Buffer, ctype, body string) error {
	fmt.Fprintf(b, "Content-Type: %s; charset=UTF-8\r\n", ctype)
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	w := quotedprintable.NewWriter(b)
	if _, err := w.Write([]byte(body)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	b.WriteString("\r\n")
	return nil
}
