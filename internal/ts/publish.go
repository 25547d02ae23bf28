package ts

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentParts bounds parallel part uploads for a single archive.
const maxConcurrentParts = 4

// UserMedia identifies an upload session on the repository.
type UserMedia struct {
	UUID     string `json:"uuid"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// UploadPartURL is a presigned URL covering one slice of the archive.
type UploadPartURL struct {
	PartNumber int    `json:"part_number"`
	URL        string `json:"url"`
	Offset     int64  `json:"offset"`
	Length     int64  `json:"length"`
}

type initiateUploadRequest struct {
	Filename      string `json:"filename"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

type initiateUploadResponse struct {
	UserMedia  UserMedia       `json:"user_media"`
	UploadURLs []UploadPartURL `json:"upload_urls"`
}

type completedPart struct {
	ETag       string `json:"ETag"`
	PartNumber int    `json:"PartNumber"`
}

type finishUploadRequest struct {
	Parts []completedPart `json:"parts"`
}

// SubmissionMetadata describes a finished upload to the submission endpoint.
type SubmissionMetadata struct {
	AuthorName     string   `json:"author_name"`
	Communities    []string `json:"communities"`
	Categories     []string `json:"categories"`
	HasNSFWContent bool     `json:"has_nsfw_content"`
	UploadUUID     string   `json:"upload_uuid"`
}

// PublishArchive uploads a built package archive through the usermedia
// multipart flow and submits it for listing. The session is aborted on
// any failure after initiation so the repository can reclaim the upload.
func (c *Client) PublishArchive(ctx context.Context, archivePath string, meta SubmissionMetadata) error {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return errors.Wrapf(err, "reading archive %s", archivePath)
	}

	session, err := c.initiateUpload(ctx, archivePath, int64(len(data)))
	if err != nil {
		return err
	}

	parts, err := c.uploadParts(ctx, data, session.UploadURLs)
	if err != nil {
		c.abortUpload(session.UserMedia.UUID)
		return err
	}

	if err := c.finishUpload(ctx, session.UserMedia.UUID, parts); err != nil {
		c.abortUpload(session.UserMedia.UUID)
		return err
	}

	meta.UploadUUID = session.UserMedia.UUID
	return c.postJSON(ctx, c.baseURL+"/api/experimental/submission/submit/", meta, nil)
}

func (c *Client) initiateUpload(ctx context.Context, filename string, size int64) (*initiateUploadResponse, error) {
	var resp initiateUploadResponse
	req := initiateUploadRequest{Filename: filename, FileSizeBytes: size}
	url := c.baseURL + "/api/experimental/usermedia/initiate-upload/"
	if err := c.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	if resp.UserMedia.UUID == "" || len(resp.UploadURLs) == 0 {
		return nil, errors.New("initiate-upload returned no upload session")
	}
	return &resp, nil
}

// uploadParts PUTs each archive slice to its presigned URL concurrently.
// Presigned URLs carry their own auth, so parts bypass the bearer token.
func (c *Client) uploadParts(ctx context.Context, data []byte, urls []UploadPartURL) ([]completedPart, error) {
	parts := make([]completedPart, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentParts)

	for i, part := range urls {
		g.Go(func() error {
			end := part.Offset + part.Length
			if part.Offset < 0 || end > int64(len(data)) {
				return errors.Errorf("part %d range [%d, %d) outside archive of %d bytes",
					part.PartNumber, part.Offset, end, len(data))
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPut, part.URL, bytes.NewReader(data[part.Offset:end]))
			if err != nil {
				return errors.Wrapf(err, "building part %d request", part.PartNumber)
			}
			req.ContentLength = part.Length

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return errors.Wrapf(err, "uploading part %d", part.PartNumber)
			}
			defer resp.Body.Close() //nolint:errcheck

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return errors.Errorf("uploading part %d failed with status %d", part.PartNumber, resp.StatusCode)
			}

			parts[i] = completedPart{
				ETag:       resp.Header.Get("ETag"),
				PartNumber: part.PartNumber,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

func (c *Client) finishUpload(ctx context.Context, uuid string, parts []completedPart) error {
	url := fmt.Sprintf("%s/api/experimental/usermedia/%s/finish-upload/", c.baseURL, uuid)
	return c.postJSON(ctx, url, finishUploadRequest{Parts: parts}, nil)
}

// abortUpload tells the repository to discard a failed upload session.
// Best effort: the original error is what the user needs to see.
func (c *Client) abortUpload(uuid string) {
	url := fmt.Sprintf("%s/api/experimental/usermedia/%s/abort-upload/", c.baseURL, uuid)
	_ = c.postJSON(context.Background(), url, struct{}{}, nil)
}
