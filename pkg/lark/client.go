// Package lark publishes study notes to a Lark (Feishu) Doc. Each month gets
// one document in a configured folder, and each day's entry is prepended to it.
package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// drive listings sometimes return a prefixed token or a URL instead of the
// bare document id, longer tokens carry the docx prefix that must come off
const maxDocTokenLen = 27

// Client talks to the Lark Doc and Drive APIs with a tenant access token
type Client struct {
	baseURL     string
	accessToken string
	folderToken string
	client      *http.Client
}

// NewClient creates a Lark client for the given folder
func NewClient(baseURL, accessToken, folderToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		folderToken: folderToken,
		client:      &http.Client{Timeout: timeout},
	}
}

// apiResponse is the common Lark envelope
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// driveFile is one entry of a drive folder listing
type driveFile struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	DocumentID string `json:"document_id"`
	Token      string `json:"token"`
	URL        string `json:"url"`
}

// EnsureDocument returns the id of the document with the given title in the
// folder, creating it when absent. At most one document per title is created.
func (c *Client) EnsureDocument(ctx context.Context, title string) (string, error) {
	docID, err := c.FindDocumentByTitle(ctx, title)
	if err != nil {
		return "", fmt.Errorf("lookup document %q: %w", title, err)
	}
	if docID != "" {
		log.Printf("[INFO] reusing existing lark document %q", title)
		return docID, nil
	}
	return c.CreateDocument(ctx, title)
}

// FindDocumentByTitle lists the folder and returns the id of a docx file with
// the given name, or empty string when none exists
func (c *Client) FindDocumentByTitle(ctx context.Context, title string) (string, error) {
	query := url.Values{}
	query.Set("folder_token", c.folderToken)
	query.Set("page_size", strconv.Itoa(50))

	data, err := c.request(ctx, http.MethodGet, "/open-apis/drive/v1/files?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	var listing struct {
		Files []driveFile `json:"files"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		return "", fmt.Errorf("decode folder listing: %w", err)
	}

	for _, f := range listing.Files {
		if f.Name != title {
			continue
		}
		if f.Type != "docx" {
			log.Printf("[WARN] found file named %q but type is %s, skipping", title, f.Type)
			continue
		}
		if docID := docTokenOf(f); docID != "" {
			return docID, nil
		}
		log.Printf("[WARN] unable to determine doc token for %q from drive metadata", title)
	}
	return "", nil
}

// CreateDocument creates a new docx document in the folder and returns its id
func (c *Client) CreateDocument(ctx context.Context, title string) (string, error) {
	payload := map[string]string{"title": title, "folder_token": c.folderToken}
	data, err := c.request(ctx, http.MethodPost, "/open-apis/docx/v1/documents", payload)
	if err != nil {
		return "", fmt.Errorf("create document %q: %w", title, err)
	}

	var created struct {
		Document struct {
			DocumentID string `json:"document_id"`
			URL        string `json:"url"`
		} `json:"document"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}

	docID := created.Document.DocumentID
	if docID == "" {
		docID = extractDocToken(created.Document.URL)
	}
	if docID == "" {
		return "", fmt.Errorf("creation response for %q carries no document id", title)
	}
	log.Printf("[INFO] created new lark document %q", title)
	return docID, nil
}

// RawContent returns the document's current plain content
func (c *Client) RawContent(ctx context.Context, docID string) (string, error) {
	data, err := c.request(ctx, http.MethodGet, "/open-apis/docx/v1/documents/"+docID+"/raw_content", nil)
	if err != nil {
		return "", fmt.Errorf("get raw content of %s: %w", docID, err)
	}
	var content struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return "", fmt.Errorf("decode raw content: %w", err)
	}
	return content.Content, nil
}

// UpdateRawContent replaces the document's content
func (c *Client) UpdateRawContent(ctx context.Context, docID, content string) error {
	payload := map[string]string{"content": content}
	if _, err := c.request(ctx, http.MethodPatch, "/open-apis/docx/v1/documents/"+docID+"/raw_content", payload); err != nil {
		return fmt.Errorf("update raw content of %s: %w", docID, err)
	}
	return nil
}

// PrependContent inserts the entry above the document's existing content.
// No partial-write recovery, a failed update aborts the run.
func (c *Client) PrependContent(ctx context.Context, docID, entry string) error {
	current, err := c.RawContent(ctx, docID)
	if err != nil {
		return err
	}
	combined := strings.TrimSpace(strings.TrimSpace(entry) + "\n\n" + current)
	if err := c.UpdateRawContent(ctx, docID, combined); err != nil {
		return err
	}
	log.Printf("[INFO] prepended new entry to document %s", docID)
	return nil
}

// request issues an API call and unwraps the Lark envelope
func (c *Client) request(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncateBody(respBody))
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode response of %s %s: %w", method, path, err)
	}
	if envelope.Code != 0 {
		return nil, fmt.Errorf("%s %s: lark api error code %d: %s", method, path, envelope.Code, envelope.Msg)
	}
	return envelope.Data, nil
}

func truncateBody(b []byte) string {
	const limit = 500
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}

// docTokenOf resolves the document id from drive metadata, falling back to the URL
func docTokenOf(f driveFile) string {
	if f.DocumentID != "" {
		return normalizeDocToken(f.DocumentID)
	}
	if f.Token != "" {
		return normalizeDocToken(f.Token)
	}
	return extractDocToken(f.URL)
}

// extractDocToken pulls the document token out of a doc URL.
// Some drive URLs carry the token without its doc prefix, that one gets added back.
func extractDocToken(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	token := strings.TrimSuffix(rawURL, "/")
	if idx := strings.LastIndex(token, "/"); idx >= 0 {
		token = token[idx+1:]
	}
	if token == "" {
		return ""
	}
	if !hasDocPrefix(token) {
		token = "docx" + token
	}
	return normalizeDocToken(token)
}

// prefixes lark issues for document tokens, including misspelled variants
// observed in drive responses
var docTokenPrefixes = []string{"docx", "doc", "doxc", "dox"}

func hasDocPrefix(token string) bool {
	for _, p := range docTokenPrefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	return false
}

// normalizeDocToken strips a spurious docx prefix from over-long tokens.
// Tokens within the length limit are left untouched.
func normalizeDocToken(token string) string {
	if len(token) >= maxDocTokenLen && strings.HasPrefix(token, "docx") {
		return token[len("docx"):]
	}
	return token
}
