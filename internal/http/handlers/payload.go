package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	"github.com/yungbote/materials-registry/internal/platform/ctxutil"
	"github.com/yungbote/materials-registry/internal/services"
)

const (
	multipartMemory  = 32 << 20
	filePartPrefix   = "files."
	payloadPartName  = "payload"
	defaultListLimit = 50
	maxListLimit     = 500
)

type valuePayload struct {
	CharacteristicID uuid.UUID `json:"characteristicId"`
	Value            any       `json:"value"`
}

type materialPayload struct {
	Name                     string         `json:"name"`
	Description              string         `json:"description"`
	ExpectedVersion          int64          `json:"expectedVersion"`
	TagIDs                   []uuid.UUID    `json:"tagIds"`
	OrderedCharacteristicIDs []uuid.UUID    `json:"orderedCharacteristicIds"`
	Values                   []valuePayload `json:"values"`
}

func (p *materialPayload) valueInputs() []services.ValueInput {
	out := make([]services.ValueInput, 0, len(p.Values))
	for _, v := range p.Values {
		out = append(out, services.ValueInput{CharacteristicID: v.CharacteristicID, Value: v.Value})
	}
	return out
}

// attachUploads adds uploads to the fileToAdd list of the characteristic's
// value, creating the value when the payload did not name it.
func (p *materialPayload) attachUploads(charID uuid.UUID, uploads []characteristics.Upload) error {
	items := make([]any, 0, len(uploads))
	for _, up := range uploads {
		items = append(items, up)
	}
	for i := range p.Values {
		if p.Values[i].CharacteristicID != charID {
			continue
		}
		if p.Values[i].Value == nil {
			p.Values[i].Value = map[string]any{"fileToAdd": items}
			return nil
		}
		m, ok := p.Values[i].Value.(map[string]any)
		if !ok {
			return fmt.Errorf("value of characteristic %s must be an object to carry files", charID)
		}
		existing, _ := m["fileToAdd"].([]any)
		m["fileToAdd"] = append(existing, items...)
		return nil
	}
	p.Values = append(p.Values, valuePayload{CharacteristicID: charID, Value: map[string]any{"fileToAdd": items}})
	return nil
}

func decodePayload(r io.Reader, dst *materialPayload) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// readMaterialPayload accepts a JSON body, or a multipart form with a JSON
// "payload" part and binaries under "files.<characteristicId>". The returned
// cleanup removes multipart temp files and must run after the service call.
func readMaterialPayload(c *gin.Context) (*materialPayload, func(), error) {
	noop := func() {}
	p := &materialPayload{}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := decodePayload(c.Request.Body, p); err != nil {
			return nil, noop, err
		}
		return p, noop, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return nil, noop, fmt.Errorf("invalid multipart form: %w", err)
	}
	form := c.Request.MultipartForm
	cleanup := func() { _ = form.RemoveAll() }

	if raw := form.Value[payloadPartName]; len(raw) > 0 && strings.TrimSpace(raw[0]) != "" {
		if err := decodePayload(strings.NewReader(raw[0]), p); err != nil {
			cleanup()
			return nil, noop, err
		}
	}
	for key, headers := range form.File {
		if !strings.HasPrefix(key, filePartPrefix) {
			continue
		}
		charID, err := uuid.Parse(strings.TrimPrefix(key, filePartPrefix))
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("file part %q: %w", key, err)
		}
		uploads := make([]characteristics.Upload, 0, len(headers))
		for _, fh := range headers {
			uploads = append(uploads, uploadFromHeader(fh))
		}
		if err := p.attachUploads(charID, uploads); err != nil {
			cleanup()
			return nil, noop, err
		}
	}
	return p, cleanup, nil
}

func uploadFromHeader(fh *multipart.FileHeader) characteristics.Upload {
	mimeType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		if f, err := fh.Open(); err == nil {
			buf := make([]byte, 512)
			n, _ := io.ReadFull(f, buf)
			_ = f.Close()
			mimeType = http.DetectContentType(bytes.TrimRight(buf[:n], "\x00"))
		}
	}
	return characteristics.Upload{
		Name:        fh.Filename,
		ContentType: mimeType,
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func actorID(c *gin.Context) uuid.UUID {
	return ctxutil.RequestFrom(c.Request.Context()).ActorID
}

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// expectedVersion reads If-Match, then the version query parameter.
func expectedVersion(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		raw = strings.TrimSpace(c.Query("version"))
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid expected version %q", raw)
	}
	return v, nil
}

func listLimit(c *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
