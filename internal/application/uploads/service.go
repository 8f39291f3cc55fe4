package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"ride-backend/internal/application/memberships"
	"ride-backend/internal/application/policies"
	"ride-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CirclePicturesBucket  = "circle-pictures"
	ProfilePicturesBucket = "profile-pictures"
)

// SupabaseClient defines what we need from Supabase storage.
type SupabaseClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
}

// HTTPClient is a SupabaseClient backed by the storage HTTP API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative path returned by upload/sign
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, objectPath)

	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var data signedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if u[0] != '/' {
			u = "/" + u
		}
		return base + "/storage/v1" + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

// Service hands out signed upload URLs for circle and profile pictures.
type Service struct {
	DB          *gorm.DB
	Client      SupabaseClient
	SupabaseURL string
	Now         func() time.Time
}

type UploadResult struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Path      string `json:"path"`
}

// CirclePictureURL signs an upload into the circle's picture folder. Admins only.
func (s *Service) CirclePictureURL(ctx context.Context, slug string, actor uuid.UUID, fileName string) (*UploadResult, error) {
	db := s.DB.WithContext(ctx)
	var circle domain.Circle
	if err := db.Where("slug_name = ?", slug).First(&circle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCircleNotFound
		}
		return nil, err
	}
	m, err := memberships.FindActive(db, circle.CircleID, actor)
	if err != nil && !errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, err
	}
	if !policies.CanAdministerCircle(actor, policies.CircleAccess{Circle: &circle, Actor: m}) {
		return nil, domain.ErrNotAuthorized
	}
	return s.sign(ctx, CirclePicturesBucket, circle.SlugName, fileName)
}

// ProfilePictureURL signs an upload into the actor's own picture folder.
func (s *Service) ProfilePictureURL(ctx context.Context, actor uuid.UUID, fileName string) (*UploadResult, error) {
	return s.sign(ctx, ProfilePicturesBucket, actor.String(), fileName)
}

func (s *Service) sign(ctx context.Context, bucket, folder, fileName string) (*UploadResult, error) {
	name := path.Base(strings.TrimSpace(fileName))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: file_name is required", domain.ErrInvalidInput)
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	objectPath := fmt.Sprintf("%s/%d-%s", folder, now.UnixMilli(), name)

	signedURL, err := s.Client.CreateSignedUploadURL(ctx, bucket, objectPath)
	if err != nil {
		return nil, err
	}
	publicBase := strings.TrimRight(s.SupabaseURL, "/")
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: fmt.Sprintf("%s/storage/v1/object/public/%s/%s", publicBase, bucket, objectPath),
		Path:      objectPath,
	}, nil
}
