package shipping

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"stakdcards.com/app/internal/storage"
)

const maxLabelBytes = 10 << 20

// LabelArchiver copies a purchased label from the aggregator's URL into our
// own storage, since aggregator label links expire.
type LabelArchiver struct {
	store  storage.Storage
	client *http.Client
}

func NewLabelArchiver(store storage.Storage, client *http.Client) *LabelArchiver {
	if client == nil {
		client = http.DefaultClient
	}
	return &LabelArchiver{store: store, client: client}
}

func (a *LabelArchiver) Archive(ctx context.Context, orderID, labelURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, labelURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("label download: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLabelBytes+1))
	if err != nil {
		return "", err
	}
	if len(body) > maxLabelBytes {
		return "", fmt.Errorf("label download: larger than %d bytes", maxLabelBytes)
	}

	ext := path.Ext(req.URL.Path)
	if ext == "" {
		ext = ".pdf"
	}
	res, err := a.store.Put(ctx, bytes.NewReader(body), storage.PutInput{
		Key:         storage.LabelKey(orderID, ext),
		Filename:    orderID + ext,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(body)),
	})
	if err != nil {
		return "", err
	}
	return res.URL, nil
}
