package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/myvaultapp/myvault/internal/common"
)

// TokenSource supplies the OAuth bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a TokenSource that always yields token.
func StaticTokenSource(token string) TokenSource {
	return staticToken(token)
}

type staticToken string

func (s staticToken) Token(_ context.Context) (string, error) {
	return string(s), nil
}

// DriveStore talks to the Google Drive v3 REST API.
//
// Both base URLs are configurable so tests can point the adapter at an
// httptest server; production uses NewDriveStore defaults.
type DriveStore struct {
	client     *http.Client
	tokens     TokenSource
	apiBase    string
	uploadBase string
}

type DriveOption func(*DriveStore)

// WithDriveEndpoints overrides the API and upload base URLs.
func WithDriveEndpoints(apiBase, uploadBase string) DriveOption {
	return func(d *DriveStore) {
		d.apiBase = strings.TrimRight(apiBase, "/")
		d.uploadBase = strings.TrimRight(uploadBase, "/")
	}
}

// WithDriveHTTPClient overrides the HTTP client.
func WithDriveHTTPClient(c *http.Client) DriveOption {
	return func(d *DriveStore) { d.client = c }
}

func NewDriveStore(tokens TokenSource, opts ...DriveOption) *DriveStore {
	d := &DriveStore{
		client:     &http.Client{Timeout: 60 * time.Second},
		tokens:     tokens,
		apiBase:    "https://www.googleapis.com",
		uploadBase: "https://www.googleapis.com",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// driveFile is the subset of the Drive file resource we read. Drive returns
// size as a JSON string, not a number.
type driveFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     string `json:"size"`
	Trashed  bool   `json:"trashed"`
}

func (f *driveFile) info() ObjectInfo {
	size, _ := strconv.ParseInt(f.Size, 10, 64)
	return ObjectInfo{
		ID:       f.ID,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     size,
		Trashed:  f.Trashed,
	}
}

func (d *DriveStore) List(ctx context.Context, q Query) ([]ObjectInfo, error) {
	terms := []string{"trashed = false"}
	if len(q.Names) > 0 {
		names := make([]string, 0, len(q.Names))
		for _, n := range q.Names {
			names = append(names, fmt.Sprintf("name = '%s'", escapeDriveQuery(n)))
		}
		terms = append(terms, "("+strings.Join(names, " or ")+")")
	}
	if q.ParentID != "" {
		terms = append(terms, fmt.Sprintf("'%s' in parents", escapeDriveQuery(q.ParentID)))
	}
	if q.MimeType != "" {
		terms = append(terms, fmt.Sprintf("mimeType = '%s'", escapeDriveQuery(q.MimeType)))
	}

	params := url.Values{}
	params.Set("q", strings.Join(terms, " and "))
	params.Set("fields", "files(id,name,mimeType,size,trashed)")
	params.Set("pageSize", "1000")

	body, err := d.do(ctx, http.MethodGet, d.apiBase+"/drive/v3/files?"+params.Encode(), nil, "")
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Files []driveFile `json:"files"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding file list: %v", common.ErrRemoteUnavailable, err)
	}

	infos := make([]ObjectInfo, 0, len(parsed.Files))
	for i := range parsed.Files {
		infos = append(infos, parsed.Files[i].info())
	}
	return infos, nil
}

func (d *DriveStore) Create(ctx context.Context, name, parentID, mimeType string) (string, error) {
	meta := map[string]any{"name": name, "mimeType": mimeType}
	if parentID != "" {
		meta["parents"] = []string{parentID}
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	body, err := d.do(ctx, http.MethodPost, d.apiBase+"/drive/v3/files?fields=id", payload, "application/json")
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding create response: %v", common.ErrRemoteUnavailable, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: create returned no id", common.ErrRemoteUnavailable)
	}
	return created.ID, nil
}

func (d *DriveStore) WriteContent(ctx context.Context, id string, data []byte, contentType string) error {
	u := d.uploadBase + "/upload/drive/v3/files/" + url.PathEscape(id) + "?uploadType=media"
	_, err := d.do(ctx, http.MethodPatch, u, data, contentType)
	return err
}

func (d *DriveStore) ReadContent(ctx context.Context, id string) ([]byte, error) {
	u := d.apiBase + "/drive/v3/files/" + url.PathEscape(id) + "?alt=media"
	return d.do(ctx, http.MethodGet, u, nil, "")
}

func (d *DriveStore) Delete(ctx context.Context, id string) error {
	u := d.apiBase + "/drive/v3/files/" + url.PathEscape(id)

	req, err := d.newRequest(ctx, http.MethodDelete, u, nil, "")
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	// already gone counts as deleted
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil
	}
	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (d *DriveStore) GetMeta(ctx context.Context, id string) (*ObjectInfo, error) {
	u := d.apiBase + "/drive/v3/files/" + url.PathEscape(id) + "?fields=id,name,mimeType,size,trashed"

	body, err := d.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}

	var f driveFile
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("%w: decoding metadata: %v", common.ErrRemoteUnavailable, err)
	}
	info := f.info()
	return &info, nil
}

func (d *DriveStore) newRequest(ctx context.Context, method, u string, body []byte, contentType string) (*http.Request, error) {
	token, err := d.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (d *DriveStore) do(ctx context.Context, method, u string, body []byte, contentType string) ([]byte, error) {
	req, err := d.newRequest(ctx, method, u, body, contentType)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, method, u)
	}
	if resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", common.ErrRemoteUnavailable, err)
	}
	return data, nil
}

// statusError keeps a short prefix of the response body for diagnostics.
func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return fmt.Errorf("%w: status %d: %s", common.ErrRemoteUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func escapeDriveQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
