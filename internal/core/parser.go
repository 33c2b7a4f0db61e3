package core

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseMessage parses raw email bytes into a RawMessage. Only input
// that cannot be read as a message at all fails; malformed parts and
// undecodable payloads degrade to whatever could be extracted, so
// BodyText is always a defined (possibly empty) string.
func ParseMessage(raw []byte) (*RawMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParsingError{Err: err}
	}

	rm := &RawMessage{Headers: msg.Header}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		// Keep headers, treat the body as empty
		return rm, nil
	}

	consumeEntity(rm, entityHeader{
		contentType: msg.Header.Get("Content-Type"),
		disposition: msg.Header.Get("Content-Disposition"),
		encoding:    msg.Header.Get("Content-Transfer-Encoding"),
	}, body)

	return rm, nil
}

// entityHeader carries the MIME headers relevant to body assembly,
// uniform across the top-level message and nested parts.
type entityHeader struct {
	contentType string
	disposition string
	encoding    string
}

func consumeEntity(rm *RawMessage, h entityHeader, body []byte) {
	ct := h.contentType
	if ct == "" {
		ct = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = "text/plain"
		params = nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if boundary := params["boundary"]; boundary != "" {
			walkMultipart(rm, body, boundary)
		}
		return
	}

	decoded := decodeTransferEncoding(body, h.encoding)

	if name := entityFilename(h.disposition, params); name != "" {
		rm.Attachments = append(rm.Attachments, AttachmentInfo{
			Filename:  name,
			Extension: extensionOf(name),
		})
	}

	switch mediaType {
	case "text/plain":
		rm.BodyText += sanitizeUTF8(string(decoded))
	case "text/html":
		html := sanitizeUTF8(string(decoded))
		rm.HTMLBody += html
		rm.BodyText += htmlText(html)
	}
}

func walkMultipart(rm *RawMessage, body []byte, boundary string) {
	mr := multipart.NewReader(bytes.NewReader(body), boundary)

	for {
		part, err := mr.NextPart()
		if err != nil {
			// EOF or a broken boundary, keep whatever was collected
			return
		}

		partBody, err := io.ReadAll(part)
		if err != nil {
			continue
		}

		consumeEntity(rm, entityHeader{
			contentType: part.Header.Get("Content-Type"),
			disposition: part.Header.Get("Content-Disposition"),
			encoding:    part.Header.Get("Content-Transfer-Encoding"),
		}, partBody)
	}
}

// entityFilename extracts the declared filename of a part, preferring
// the Content-Disposition filename over the Content-Type name param.
func entityFilename(disposition string, ctParams map[string]string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if f := params["filename"]; f != "" {
				return decodeHeaderWord(f)
			}
		}
	}
	if f := ctParams["name"]; f != "" {
		return decodeHeaderWord(f)
	}
	return ""
}

func decodeHeaderWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// extensionOf returns the lowercase substring after the last dot, or
// an empty string when the filename has no dot.
func extensionOf(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

func decodeTransferEncoding(body []byte, encoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		cleaned := strings.Map(func(r rune) rune {
			switch r {
			case '\r', '\n', ' ', '\t':
				return -1
			}
			return r
		}, string(body))
		if decoded, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
			return decoded
		}
	case "quoted-printable":
		reader := quotedprintable.NewReader(bytes.NewReader(body))
		if decoded, err := io.ReadAll(reader); err == nil {
			return decoded
		}
	}

	return body
}

// htmlText strips markup and returns the visible text of an HTML body
func htmlText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return doc.Text()
}

// sanitizeUTF8 replaces invalid byte sequences so downstream string
// matching always operates on valid UTF-8
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}
