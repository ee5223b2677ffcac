package viewstate

import (
	"context"
	"fmt"
	"image"
	"strings"

	"codescan/internal/barcode"
	"codescan/internal/models"

	"github.com/rs/zerolog"
)

// GenerateMode picks between a QR code and a linear barcode
type GenerateMode string

const (
	ModeQRCode  GenerateMode = "QR_CODE"
	ModeBarcode GenerateMode = "BARCODE"
)

const (
	msgEmptyContent   = "Please enter content"
	msgGenerateFailed = "Failed to generate code"
)

// BarcodeFormats are the linear formats offered on the generate screen
var BarcodeFormats = []models.CodeFormat{
	models.FormatCode128,
	models.FormatCode39,
	models.FormatEAN13,
	models.FormatEAN8,
	models.FormatUPCA,
	models.FormatITF,
}

// GenerateState is what the generate screen renders
type GenerateState struct {
	Content          string            `json:"content"`
	Mode             GenerateMode      `json:"mode"`
	BarcodeFormat    models.CodeFormat `json:"barcode_format"`
	Image            *image.Paletted   `json:"-"`
	IsGenerating     bool              `json:"is_generating"`
	Error            string            `json:"error,omitempty"`
	ShowResultDialog bool              `json:"show_result_dialog"`
	RecordID         int64             `json:"record_id,omitempty"`
}

// Format is the format a generation with this state produces
func (s GenerateState) Format() models.CodeFormat {
	if s.Mode == ModeBarcode {
		return s.BarcodeFormat
	}
	return models.FormatQRCode
}

// Generator renders codes
type Generator interface {
	GenerateTwoDimensional(content string, opts ...barcode.Option) (*image.Paletted, error)
	GenerateLinear(content string, format models.CodeFormat, opts ...barcode.Option) (*image.Paletted, error)
}

// GenerateSaver persists generated codes
type GenerateSaver interface {
	SaveGenerateRecord(ctx context.Context, content string, format models.CodeFormat) (models.CodeRecord, error)
}

type GenerateController struct {
	generator Generator
	saver     GenerateSaver
	log       zerolog.Logger
	state     *Holder[GenerateState]

	ctx    context.Context
	cancel context.CancelFunc
	// job identifies the latest Generate call; older jobs do not touch the state
	job    int
	jobCtx context.CancelFunc
}

func NewGenerateController(generator Generator, saver GenerateSaver, log zerolog.Logger) *GenerateController {
	ctx, cancel := context.WithCancel(context.Background())
	return &GenerateController{
		generator: generator,
		saver:     saver,
		log:       log,
		state: NewHolder(GenerateState{
			Mode:          ModeQRCode,
			BarcodeFormat: models.FormatCode128,
		}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *GenerateController) State() GenerateState {
	return c.state.Value()
}

func (c *GenerateController) Subscribe(ctx context.Context) <-chan GenerateState {
	return c.state.Subscribe(ctx)
}

func (c *GenerateController) SetContent(content string) {
	c.state.Update(func(s GenerateState) GenerateState {
		s.Content = content
		s.Error = ""
		return s
	})
}

func (c *GenerateController) SetMode(mode GenerateMode) error {
	if mode != ModeQRCode && mode != ModeBarcode {
		return fmt.Errorf("unknown mode %q", mode)
	}
	c.state.Update(func(s GenerateState) GenerateState {
		s.Mode = mode
		s.Error = ""
		return s
	})
	return nil
}

func (c *GenerateController) SetBarcodeFormat(format models.CodeFormat) error {
	offered := false
	for _, f := range BarcodeFormats {
		if f == format {
			offered = true
			break
		}
	}
	if !offered {
		return fmt.Errorf("format %s is not offered", format)
	}
	c.state.Update(func(s GenerateState) GenerateState {
		s.BarcodeFormat = format
		s.Error = ""
		return s
	})
	return nil
}

// Generate renders the current content in the background and saves a GENERATE
// record on success. The returned channel closes when the job has finished.
// A newer Generate supersedes an unfinished one.
func (c *GenerateController) Generate() <-chan struct{} {
	done := make(chan struct{})

	var (
		job    int
		ctx    context.Context
		cancel context.CancelFunc
		req    GenerateState
		blank  bool
	)
	c.state.Update(func(s GenerateState) GenerateState {
		if strings.TrimSpace(s.Content) == "" {
			blank = true
			s.Error = msgEmptyContent
			return s
		}
		if c.jobCtx != nil {
			c.jobCtx()
		}
		c.job++
		job = c.job
		ctx, cancel = context.WithCancel(c.ctx)
		c.jobCtx = cancel
		s.IsGenerating = true
		s.Error = ""
		req = s
		return s
	})
	if blank || ctx == nil {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		defer cancel()
		c.run(ctx, job, req)
	}()
	return done
}

func (c *GenerateController) run(ctx context.Context, job int, req GenerateState) {
	format := req.Format()
	var (
		img *image.Paletted
		err error
	)
	if format == models.FormatQRCode {
		img, err = c.generator.GenerateTwoDimensional(req.Content)
	} else {
		img, err = c.generator.GenerateLinear(req.Content, format)
	}
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.finish(job, func(s GenerateState) GenerateState {
			s.Error = err.Error()
			if s.Error == "" {
				s.Error = msgGenerateFailed
			}
			return s
		})
		return
	}

	var recordID int64
	if c.saver != nil {
		record, err := c.saver.SaveGenerateRecord(ctx, req.Content, format)
		if err != nil {
			c.log.Error().Err(err).Str("format", string(format)).Msg("save generated code")
		} else {
			recordID = record.ID
		}
	}
	c.finish(job, func(s GenerateState) GenerateState {
		s.Image = img
		s.ShowResultDialog = true
		s.RecordID = recordID
		return s
	})
}

// finish applies fn and clears IsGenerating, unless a newer job started
func (c *GenerateController) finish(job int, fn func(GenerateState) GenerateState) {
	c.state.Update(func(s GenerateState) GenerateState {
		if job != c.job {
			return s
		}
		s = fn(s)
		s.IsGenerating = false
		return s
	})
}

// ClearResult resets the screen for new content
func (c *GenerateController) ClearResult() {
	c.state.Update(func(s GenerateState) GenerateState {
		if c.jobCtx != nil {
			c.jobCtx()
			c.jobCtx = nil
		}
		c.job++
		s.Content = ""
		s.Image = nil
		s.Error = ""
		s.IsGenerating = false
		s.ShowResultDialog = false
		s.RecordID = 0
		return s
	})
}

func (c *GenerateController) DismissResult() {
	c.state.Update(func(s GenerateState) GenerateState {
		s.ShowResultDialog = false
		return s
	})
}

// Close cancels in-flight work; later results are discarded
func (c *GenerateController) Close() {
	c.cancel()
	c.state.Close()
}
