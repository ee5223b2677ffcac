package viewstate

import (
	"context"
	"fmt"
	"image"
	"sync"

	"codescan/internal/barcode"
	"codescan/internal/models"

	"github.com/rs/zerolog"
)

// HistoryState is what the history screen renders
type HistoryState struct {
	SelectedTab       models.RecordType   `json:"selected_tab"`
	ScanHistory       []models.CodeRecord `json:"scan_history"`
	GenerateHistory   []models.CodeRecord `json:"generate_history"`
	ShowClearConfirm  bool                `json:"show_clear_confirm"`
	SelectedRecord    *models.CodeRecord  `json:"selected_record,omitempty"`
	ShowRecordDetail  bool                `json:"show_record_detail"`
	Image             *image.Paletted     `json:"-"`
	IsGeneratingImage bool                `json:"is_generating_image"`
}

// HistorySource is the history the screen observes and edits
type HistorySource interface {
	Observe(ctx context.Context, rt models.RecordType) (<-chan []models.CodeRecord, error)
	Delete(ctx context.Context, record models.CodeRecord) error
	Clear(ctx context.Context, rt models.RecordType) error
}

// ImageRenderer re-creates the image of a stored record
type ImageRenderer interface {
	Generate(content string, format models.CodeFormat, opts ...barcode.Option) (*image.Paletted, error)
}

type HistoryController struct {
	source   HistorySource
	renderer ImageRenderer
	log      zerolog.Logger
	state    *Holder[HistoryState]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// render and renderCancel belong to the latest SelectRecord; guarded by the holder lock
	render       int
	renderCancel context.CancelFunc
}

// NewHistoryController subscribes to both partitions. The SCAN tab is selected first.
func NewHistoryController(source HistorySource, renderer ImageRenderer, log zerolog.Logger) (*HistoryController, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &HistoryController{
		source:   source,
		renderer: renderer,
		log:      log,
		state: NewHolder(HistoryState{
			SelectedTab:     models.RecordTypeScan,
			ScanHistory:     []models.CodeRecord{},
			GenerateHistory: []models.CodeRecord{},
		}),
		ctx:    ctx,
		cancel: cancel,
	}

	for _, rt := range []models.RecordType{models.RecordTypeScan, models.RecordTypeGenerate} {
		updates, err := source.Observe(ctx, rt)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("observe %s history: %w", rt, err)
		}
		c.wg.Add(1)
		go c.follow(rt, updates)
	}
	return c, nil
}

func (c *HistoryController) follow(rt models.RecordType, updates <-chan []models.CodeRecord) {
	defer c.wg.Done()
	for records := range updates {
		c.state.Update(func(s HistoryState) HistoryState {
			if rt == models.RecordTypeScan {
				s.ScanHistory = records
			} else {
				s.GenerateHistory = records
			}
			return s
		})
	}
}

func (c *HistoryController) State() HistoryState {
	return c.state.Value()
}

func (c *HistoryController) Subscribe(ctx context.Context) <-chan HistoryState {
	return c.state.Subscribe(ctx)
}

func (c *HistoryController) SelectTab(rt models.RecordType) error {
	if !rt.Valid() {
		return fmt.Errorf("unknown tab %q", rt)
	}
	c.state.Update(func(s HistoryState) HistoryState {
		s.SelectedTab = rt
		return s
	})
	return nil
}

// Delete removes one record; the list refreshes through the subscription
func (c *HistoryController) Delete(record models.CodeRecord) error {
	if err := c.source.Delete(c.ctx, record); err != nil {
		c.log.Error().Err(err).Int64("id", record.ID).Msg("delete history record")
		return err
	}
	c.state.Update(func(s HistoryState) HistoryState {
		if s.SelectedRecord != nil && s.SelectedRecord.ID == record.ID {
			c.dropSelectionLocked(&s)
		}
		return s
	})
	return nil
}

func (c *HistoryController) ShowClearConfirm() {
	c.state.Update(func(s HistoryState) HistoryState {
		s.ShowClearConfirm = true
		return s
	})
}

func (c *HistoryController) DismissClearConfirm() {
	c.state.Update(func(s HistoryState) HistoryState {
		s.ShowClearConfirm = false
		return s
	})
}

// ClearHistory clears the partition of the selected tab
func (c *HistoryController) ClearHistory() error {
	rt := c.state.Value().SelectedTab
	err := c.source.Clear(c.ctx, rt)
	c.state.Update(func(s HistoryState) HistoryState {
		s.ShowClearConfirm = false
		return s
	})
	if err != nil {
		c.log.Error().Err(err).Str("record_type", string(rt)).Msg("clear history")
	}
	return err
}

// SelectRecord opens the detail view and renders the record's image in the
// background, cancelling any render still running for a previous selection.
// The returned channel closes when the render has finished or was cancelled.
func (c *HistoryController) SelectRecord(record models.CodeRecord) <-chan struct{} {
	done := make(chan struct{})

	var (
		job int
		ctx context.Context
	)
	c.state.Update(func(s HistoryState) HistoryState {
		c.dropSelectionLocked(&s)
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(c.ctx)
		c.renderCancel = cancel
		job = c.render

		r := record
		s.SelectedRecord = &r
		s.ShowRecordDetail = true
		s.IsGeneratingImage = true
		return s
	})
	if ctx == nil {
		close(done)
		return done
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		img, err := c.renderer.Generate(record.Content, record.Format)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.log.Warn().Err(err).Int64("id", record.ID).Msg("render history image")
		}
		c.state.Update(func(s HistoryState) HistoryState {
			if job != c.render {
				return s
			}
			s.Image = img
			s.IsGeneratingImage = false
			return s
		})
	}()
	return done
}

// DismissRecordDetail closes the detail view and cancels its render
func (c *HistoryController) DismissRecordDetail() {
	c.state.Update(func(s HistoryState) HistoryState {
		c.dropSelectionLocked(&s)
		return s
	})
}

// dropSelectionLocked cancels the current render and clears the detail fields.
// It runs inside a holder update.
func (c *HistoryController) dropSelectionLocked(s *HistoryState) {
	if c.renderCancel != nil {
		c.renderCancel()
		c.renderCancel = nil
	}
	c.render++
	s.SelectedRecord = nil
	s.ShowRecordDetail = false
	s.Image = nil
	s.IsGeneratingImage = false
}

// Close cancels the subscriptions and any running render
func (c *HistoryController) Close() {
	c.cancel()
	c.wg.Wait()
	c.state.Close()
}
