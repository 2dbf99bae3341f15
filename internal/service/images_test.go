package service

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/webclinic017/sagetrader-api/internal/assets"
	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

type fakeAssets struct {
	uploads   []assets.UploadOptions
	destroyed []string
	result    string
	content   string
}

func (f *fakeAssets) Upload(_ context.Context, file any, opts assets.UploadOptions) (models.ImageAsset, error) {
	path, _ := file.(string)
	b, err := os.ReadFile(path)
	if err != nil {
		return models.ImageAsset{}, err
	}
	f.content = string(b)
	f.uploads = append(f.uploads, opts)
	return models.ImageAsset{
		Location:  "https://assets.example.com/" + opts.Folder + "/img.png",
		PublicUID: opts.Folder + "/img",
		Version:   "1",
	}, nil
}

func (f *fakeAssets) Destroy(_ context.Context, publicID string) (string, error) {
	f.destroyed = append(f.destroyed, publicID)
	return f.result, nil
}

func TestImageServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	owner := mustUser(t, store, "owner@example.com")
	other := mustUser(t, store, "other@example.com")
	fx := mustTradeFixture(t, store, owner.UID)
	trade := mustTrade(t, store, owner.UID, fx, fx.strategy.UID, true)

	fake := &fakeAssets{result: "not found"}
	svc := &ImageService{
		Images:     store.Images,
		Strategies: store.Strategies,
		Trades:     store.Trades,
		StudyItems: store.StudyItems,
		Studies:    store.Studies,
		Assets:     fake,
		Stager:     assets.Stager{Dir: t.TempDir()},
		FolderRoot: "mspt",
	}

	up := func() Upload {
		return Upload{File: strings.NewReader("png-bytes"), Filename: "chart.png", Alt: "entry", Tags: []string{"eurusd"}}
	}

	if _, err := svc.Upload(ctx, other.UID, models.ImageKindTrade, trade.UID, up()); !repository.IsNotFound(err) {
		t.Fatalf("foreign upload err=%v want NotFoundError", err)
	}

	img, err := svc.Upload(ctx, owner.UID, models.ImageKindTrade, trade.UID, up())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if fake.content != "png-bytes" {
		t.Fatalf("uploaded content=%q", fake.content)
	}
	if fake.uploads[0].Folder != "mspt/trade" {
		t.Fatalf("folder=%q want=mspt/trade", fake.uploads[0].Folder)
	}
	if img.ParentUID != trade.UID || img.Alt != "entry" || string(img.Tags) != `["eurusd"]` {
		t.Fatalf("image=%+v tags=%s", img, img.Tags)
	}

	list, err := svc.List(ctx, owner.UID, models.ImageKindTrade, trade.UID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list=%d err=%v", len(list), err)
	}

	_, err = svc.Delete(ctx, owner.UID, models.ImageKindTrade, img.UID)
	var ext *assets.ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("err=%v want ExternalServiceError", err)
	}
	if still, _ := store.Images.Get(ctx, models.ImageKindTrade, img.UID); still == nil {
		t.Fatalf("row deleted although asset service refused")
	}

	if _, err := svc.Delete(ctx, other.UID, models.ImageKindTrade, img.UID); !repository.IsNotFound(err) {
		t.Fatalf("foreign delete err=%v want NotFoundError", err)
	}

	fake.result = assets.DestroyOK
	if _, err := svc.Delete(ctx, owner.UID, models.ImageKindTrade, img.UID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gone, _ := store.Images.Get(ctx, models.ImageKindTrade, img.UID); gone != nil {
		t.Fatalf("row still present after delete")
	}
	if len(fake.destroyed) != 2 || fake.destroyed[1] != "mspt/trade/img" {
		t.Fatalf("destroyed=%v", fake.destroyed)
	}
}

func TestImageServiceStagingCleanup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	owner := mustUser(t, store, "owner@example.com")
	fx := mustTradeFixture(t, store, owner.UID)
	dir := t.TempDir()

	svc := &ImageService{
		Images:     store.Images,
		Strategies: store.Strategies,
		Trades:     store.Trades,
		StudyItems: store.StudyItems,
		Studies:    store.Studies,
		Assets:     assets.Unconfigured{},
		Stager:     assets.Stager{Dir: dir},
	}
	_, err := svc.Upload(ctx, owner.UID, models.ImageKindStrategy, fx.strategy.UID, Upload{File: io.LimitReader(strings.NewReader("abc"), 3), Filename: "a.jpg"})
	var ext *assets.ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("err=%v want ExternalServiceError", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("staged files left behind: %d", len(entries))
	}
}
