package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Bundle is the on-disk interchange format for catalog imports.
type Bundle struct {
	Tags   []*Tag   `json:"tags"`
	Assets []*Asset `json:"assets"`
}

// LoadBundle reads a JSON catalog export.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog bundle: %w", err)
	}
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("decode catalog bundle: %w", err)
	}
	for i, asset := range bundle.Assets {
		if asset == nil || asset.ID == "" {
			return nil, fmt.Errorf("catalog bundle: asset %d has no id", i)
		}
	}
	for i, tag := range bundle.Tags {
		if tag == nil || tag.Code == "" {
			return nil, fmt.Errorf("catalog bundle: tag %d has no code", i)
		}
	}
	return &bundle, nil
}

// Import writes tags first so asset tag references resolve, then assets.
// Engine-owned state survives a re-import: a tag keeps its stored remote
// playlist id and error when the bundle leaves them empty, and an asset keeps
// any of keepTags it already carried.
func Import(ctx context.Context, repo Repository, bundle *Bundle, keepTags ...string) (tags int, assets int, err error) {
	if bundle == nil {
		return 0, 0, nil
	}
	stored, err := repo.Tags(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load tags: %w", err)
	}
	existing := make(map[string]*Tag, len(stored))
	for _, tag := range stored {
		existing[tag.Code] = tag
	}
	for _, tag := range bundle.Tags {
		if prev, ok := existing[tag.Code]; ok && tag.RemoteID == "" {
			tag.RemoteID = prev.RemoteID
			if tag.Error == "" {
				tag.Error = prev.Error
			}
		}
		if err := repo.SaveTag(ctx, tag); err != nil {
			return tags, assets, fmt.Errorf("import tag %s: %w", tag.Code, err)
		}
		tags++
	}
	for _, asset := range bundle.Assets {
		if len(keepTags) > 0 {
			prev, err := repo.AssetByID(ctx, asset.ID)
			if err != nil {
				return tags, assets, fmt.Errorf("load asset %s: %w", asset.ID, err)
			}
			for _, code := range keepTags {
				if code != "" && prev != nil && prev.HasTag(code) {
					asset.AddTag(code)
				}
			}
		}
		if err := repo.SaveAsset(ctx, asset); err != nil {
			return tags, assets, fmt.Errorf("import asset %s: %w", asset.ID, err)
		}
		assets++
	}
	return tags, assets, nil
}
