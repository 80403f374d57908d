// Package backend は外部のREST APIをバックエンドゲートウェイとして利用する実装を提供する。
// イベント許可申請、登壇者、アカウントのリポジトリインターフェースを満たす。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/eventgate/internal/repository"
)

// maxResponseBytes はレスポンスボディの読み取り上限。
const maxResponseBytes = 4 << 20

// errNotFound はバックエンドが404を返したことを示す。各リポジトリメソッドでnilに変換する。
var errNotFound = errors.New("backend: not found")

// StatusError はバックエンドが想定外のステータスを返したことを示す。
// レスポンスボディは呼び出し元に返さない。
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// Client はREST APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    *url.URL
}

// NewClient はClientを生成する。baseURLは末尾のスラッシュの有無を問わない。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ベースURLのパースに失敗しました: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("ベースURLのスキームが不正です: %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Client{httpClient: httpClient, logger: logger, baseURL: u}, nil
}

// do はリクエストを送信し、2xxのレスポンスをoutにデコードする。
// 404はerrNotFound、409はrepository.ErrConflictを返す。outがnilの場合はボディを読み捨てる。
// 空・"."・".."のセグメントを含むパスは送信せずerrNotFoundを返す。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if !validPath(path) {
		c.logger.Warn("不正なパスセグメントのためバックエンドAPIを呼び出しません",
			slog.String("method", method),
			slog.String("path", path),
		)
		return fmt.Errorf("backend %s %q: %w", method, path, errNotFound)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("リクエストパスのパースに失敗しました: %w", err)
	}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(ref)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("バックエンドAPIの呼び出しに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("backend %s %s: %w", method, path, repository.ErrConflict)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("バックエンドAPIがエラーステータスを返しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		c.logger.Error("バックエンドAPIのレスポンスのパースに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

// segment はパスセグメントをエスケープする。
// "."と".."はエスケープされないため、validPathで送信前に拒否する。
func segment(s string) string {
	return url.PathEscape(s)
}

// validPath はパスがベースURLの外へ解決されるセグメントを含まないかを返す。
func validPath(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
