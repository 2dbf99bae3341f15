package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"gorm.io/datatypes"

	"github.com/webclinic017/sagetrader-api/internal/config"
	"github.com/webclinic017/sagetrader-api/internal/models"
)

// DestroyOK is the result string the asset service returns for a successful delete.
const DestroyOK = "ok"

type UploadOptions struct {
	Folder   string
	PublicID string
	Alt      string
	Tags     []string
}

// Store uploads and destroys remote image assets. file is a local path or an io.Reader.
type Store interface {
	Upload(ctx context.Context, file any, opts UploadOptions) (models.ImageAsset, error)
	Destroy(ctx context.Context, publicID string) (string, error)
}

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewStore returns an unconfigured store when the cloud credentials are missing.
func NewStore(cfg config.AssetsConfig) (Store, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return Unconfigured{}, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file any, opts UploadOptions) (models.ImageAsset, error) {
	params := uploader.UploadParams{
		PublicID: opts.PublicID,
		Folder:   opts.Folder,
		Tags:     api.CldAPIArray(opts.Tags),
	}
	if opts.Alt != "" {
		params.Context = api.CldAPIMap{"alt": opts.Alt}
	}
	resp, err := s.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return models.ImageAsset{}, &ExternalServiceError{Op: "upload", Status: "error", Detail: err.Error()}
	}
	if resp.Error.Message != "" {
		return models.ImageAsset{}, &ExternalServiceError{Op: "upload", Status: "rejected", Detail: resp.Error.Message}
	}
	return models.ImageAsset{
		Location:   resp.SecureURL,
		Alt:        opts.Alt,
		PublicUID:  resp.PublicID,
		AssetUID:   resp.AssetID,
		Signature:  resp.Signature,
		Version:    fmt.Sprint(resp.Version),
		VersionUID: resp.VersionID,
		Tags:       TagsJSON(opts.Tags),
	}, nil
}

func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) (string, error) {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return "", &ExternalServiceError{Op: "destroy", Status: "error", Detail: err.Error()}
	}
	if resp.Error.Message != "" {
		return resp.Result, &ExternalServiceError{Op: "destroy", Status: "rejected", Detail: resp.Error.Message}
	}
	return resp.Result, nil
}

// Unconfigured fails every call so uploads surface as a failed dependency.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, any, UploadOptions) (models.ImageAsset, error) {
	return models.ImageAsset{}, &ExternalServiceError{Op: "upload", Status: "unconfigured"}
}

func (Unconfigured) Destroy(context.Context, string) (string, error) {
	return "", &ExternalServiceError{Op: "destroy", Status: "unconfigured"}
}

// SplitTags parses a comma separated tag list, dropping blanks and duplicates.
func SplitTags(raw string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func TagsJSON(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return datatypes.JSON(b)
}
