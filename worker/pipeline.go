package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/piratesdroid/travel-guide/internal/cache"
	"github.com/piratesdroid/travel-guide/internal/metrics"
	"github.com/piratesdroid/travel-guide/internal/models"
	"github.com/piratesdroid/travel-guide/internal/pincode"
	"github.com/piratesdroid/travel-guide/internal/processing"
	"github.com/piratesdroid/travel-guide/internal/validate"
	"github.com/piratesdroid/travel-guide/internal/wiki"
)

const (
	// shortDescLen is the description length under which the wiki extract is used instead.
	shortDescLen = 50
	tagLimit     = 5
	tagMinLen    = 4
)

type rawRecord struct {
	Kind   models.Kind     `json:"kind"`
	Record json.RawMessage `json:"record"`
}

type recordIndexer interface {
	PutRecord(ctx context.Context, kind models.Kind, id string, doc any) error
}

type resolver interface {
	Resolve(ctx context.Context, q pincode.Query) *models.PostalResult
}

type summarizer interface {
	Summary(ctx context.Context, title string) (*wiki.Summary, error)
}

type pipeline struct {
	log      *slog.Logger
	store    recordIndexer
	seen     *cache.Memory[string]
	resolver resolver
	wiki     summarizer
	validate *validate.Validator
}

func (p *pipeline) process(ctx context.Context, msg kafka.Message) error {
	var payload rawRecord
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if !payload.Kind.Valid() {
		return fmt.Errorf("unknown record kind %q", payload.Kind)
	}
	if len(payload.Record) == 0 || string(payload.Record) == "null" {
		return errors.New("empty record")
	}

	err := p.handle(ctx, payload)
	status := "indexed"
	if err != nil {
		status = "failed"
	}
	metrics.RecordProcessed(string(payload.Kind), status)
	return err
}

func (p *pipeline) handle(ctx context.Context, payload rawRecord) error {
	switch payload.Kind {
	case models.KindPlace:
		var place models.Place
		if err := json.Unmarshal(payload.Record, &place); err != nil {
			return fmt.Errorf("decode place: %w", err)
		}
		return index(ctx, p, payload.Kind, &place, &place.ID, func() {
			p.enrichPlace(ctx, &place)
		})
	case models.KindFort:
		var fort models.Fort
		if err := json.Unmarshal(payload.Record, &fort); err != nil {
			return fmt.Errorf("decode fort: %w", err)
		}
		return index(ctx, p, payload.Kind, &fort, &fort.ID, func() {
			p.enrichFort(ctx, &fort)
		})
	default:
		var blog models.Blog
		if err := json.Unmarshal(payload.Record, &blog); err != nil {
			return fmt.Errorf("decode blog: %w", err)
		}
		return index(ctx, p, payload.Kind, &blog, &blog.ID, func() {
			enrichBlog(&blog)
		})
	}
}

// index validates doc, gives it an ID, skips it when its content has not
// changed since the last time it was indexed, enriches and writes it.
func index(ctx context.Context, p *pipeline, kind models.Kind, doc any, id *string, enrich func()) error {
	if err := p.validate.Struct(doc); err != nil {
		return err
	}
	*id = strings.TrimSpace(*id)
	if *id == "" {
		*id = uuid.NewString()
	}

	hash, err := processing.ContentHash(doc)
	if err != nil {
		return err
	}
	key := string(kind) + "/" + *id
	if prev, ok, _ := p.seen.Get(ctx, key); ok && prev == hash {
		p.log.Debug("unchanged record", slog.String("kind", string(kind)), slog.String("id", *id))
		return nil
	}

	if enrich != nil {
		enrich()
	}

	if err := p.store.PutRecord(ctx, kind, *id, doc); err != nil {
		return err
	}

	_ = p.seen.Set(ctx, key, hash)
	p.log.Info("indexed record", slog.String("kind", string(kind)), slog.String("id", *id))
	return nil
}

func (p *pipeline) enrichPlace(ctx context.Context, place *models.Place) {
	if place.Pincode == "" {
		place.Postal.Apply(p.resolver.Resolve(ctx, pincode.Query{Title: place.Title, Address: place.Add}))
	}
	if place.Thumb != "" && len(place.Desc) >= shortDescLen {
		return
	}
	if s := p.summary(ctx, place.Title); s != nil {
		if place.Thumb == "" {
			place.Thumb = s.ImageURL()
		}
		if len(place.Desc) < shortDescLen && s.Extract != "" {
			place.Desc = processing.PlainText(s.Extract)
		}
	}
}

func (p *pipeline) enrichFort(ctx context.Context, fort *models.Fort) {
	if fort.Pincode == "" {
		fort.Postal.Apply(p.resolver.Resolve(ctx, pincode.Query{Title: fort.DisplayTitle(), Address: fort.Address}))
	}
	if fort.Cover() != "" && len(fort.Desc) >= shortDescLen {
		return
	}
	if s := p.summary(ctx, fort.DisplayTitle()); s != nil {
		if fort.Cover() == "" {
			fort.Thumb = s.ImageURL()
		}
		if len(fort.Desc) < shortDescLen && s.Extract != "" {
			fort.Desc = processing.PlainText(s.Extract)
		}
	}
}

func (p *pipeline) summary(ctx context.Context, title string) *wiki.Summary {
	if p.wiki == nil {
		return nil
	}
	s, err := p.wiki.Summary(ctx, title)
	if err != nil {
		p.log.Warn("wiki summary failed", slog.String("title", title), slog.Any("err", err))
		return nil
	}
	return s
}

func enrichBlog(blog *models.Blog) {
	if len(blog.Tags) == 0 {
		blog.Tags = processing.ExtractKeywords(blog.Title+" "+blog.Content, tagLimit, tagMinLen)
	}
	if blog.ReadTime == "" {
		blog.ReadTime = processing.ReadTime(blog.Content)
	}
}
