package usecase

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.uber.org/zap"
)

const (
	maxTitleLength       = 120
	maxDescriptionLength = 2000
)

// ImageUpload is an image supplied with a new item.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

type CreateItemInput struct {
	Title       string
	Description string
	Price       float64
	ItemType    string
	Tags        []string
	Sizes       []string
	Image       *ImageUpload
}

func (in *CreateItemInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ItemType = strings.ToLower(strings.TrimSpace(in.ItemType))
	in.Tags = cleanList(in.Tags, true)
	in.Sizes = cleanList(in.Sizes, false)

	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	case len([]rune(in.Title)) > maxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", domain.ErrInvalidInput, maxTitleLength)
	case len([]rune(in.Description)) > maxDescriptionLength:
		return fmt.Errorf("%w: description must be at most %d characters", domain.ErrInvalidInput, maxDescriptionLength)
	case math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0:
		return fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidInput)
	case in.ItemType == "":
		return fmt.Errorf("%w: itemType is required", domain.ErrInvalidInput)
	}
	return nil
}

type ItemUsecase struct {
	items     domain.ItemRepository
	users     domain.UserRepository
	store     domain.ObjectStore
	presenter *Presenter
	events    domain.EventPublisher
	logger    *logger.Logger
}

func NewItemUsecase(items domain.ItemRepository, users domain.UserRepository, store domain.ObjectStore, presenter *Presenter, events domain.EventPublisher, log *logger.Logger) *ItemUsecase {
	return &ItemUsecase{
		items:     items,
		users:     users,
		store:     store,
		presenter: presenter,
		events:    events,
		logger:    log.Named("ItemUsecase"),
	}
}

// Create stores the optional image, then the item, and links the item to
// its owner's post list.
func (uc *ItemUsecase) Create(ctx context.Context, ownerID domain.ID, in CreateItemInput) (*domain.FeedItem, error) {
	if ownerID.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	item := &domain.Item{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		OwnerID:     ownerID,
		Tags:        in.Tags,
		ItemType:    in.ItemType,
		Sizes:       in.Sizes,
		CreatedAt:   time.Now().UTC(),
	}

	if in.Image != nil && in.Image.Data != nil {
		key, err := uc.store.Put(ctx, in.Image.FileName, in.Image.ContentType, in.Image.Data, in.Image.Size)
		if err != nil {
			uc.logger.Error("Failed to store item image", zap.String("owner_id", ownerID.Hex()), zap.Error(err))
			return nil, fmt.Errorf("store image: %w: %v", domain.ErrUnavailable, err)
		}
		item.ImageKey = key
	}

	if err := uc.items.Create(ctx, item); err != nil {
		return nil, storeError("create item", err)
	}
	if err := uc.users.AddPost(ctx, ownerID, item.ID); err != nil {
		uc.logger.Warn("Failed to link item to owner", zap.String("item_id", item.ID.Hex()), zap.Error(err))
	}

	publish(ctx, uc.events, uc.logger, SubjectItemCreated, map[string]any{
		"item_id":   item.ID.Hex(),
		"owner_id":  ownerID.Hex(),
		"item_type": item.ItemType,
		"price":     item.Price,
	})
	uc.logger.Info("Item created", zap.String("item_id", item.ID.Hex()), zap.String("owner_id", ownerID.Hex()))

	out, err := uc.presenter.Items(ctx, []*domain.Item{item})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (uc *ItemUsecase) Get(ctx context.Context, id domain.ID) (*domain.FeedItem, error) {
	item, err := uc.items.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("get item", err)
	}
	out, err := uc.presenter.Items(ctx, []*domain.Item{item})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// cleanList trims entries, drops blanks and duplicates, keeping first-seen order.
func cleanList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
