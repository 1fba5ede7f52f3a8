package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"memento/internal/interaction"
	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

var keys = map[string]interaction.Key{
	"delete":    interaction.KeyDelete,
	"backspace": interaction.KeyBackspace,
	"enter":     interaction.KeyEnter,
	"escape":    interaction.KeyEscape,
}

// Play replays steps against the controller in order. It stops at the first
// failing step.
func Play(ctx context.Context, c *interaction.Controller, steps []Step, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := play(ctx, c, s); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Debug("scene step applied", "step", i+1, "status", c.Status().String())
	}
	return nil
}

func play(ctx context.Context, c *interaction.Controller, s Step) error {
	if err := s.Validate(); err != nil {
		return err
	}
	switch {
	case s.Tool != "":
		t, ok := interaction.ParseTool(s.Tool)
		if !ok {
			return fmt.Errorf("unknown tool %q", s.Tool)
		}
		c.SetTool(t)
	case s.Type != nil:
		c.TypeText(*s.Type)
	case s.SetText != nil:
		c.SetText(*s.SetText)
	case s.Key != "":
		k, ok := keys[strings.ToLower(s.Key)]
		if !ok {
			return fmt.Errorf("unknown key %q", s.Key)
		}
		c.KeyDown(k)
	case s.Click != nil:
		p := s.Click.point()
		if err := c.PointerDown(p); err != nil {
			return err
		}
		c.PointerUp(p)
	case s.Drag != nil:
		return drag(c, *s.Drag)
	case len(s.Stroke) > 0:
		first := s.Stroke[0].point()
		if err := c.PointerDown(first); err != nil {
			return err
		}
		for _, p := range s.Stroke {
			c.PointerMove(p.point())
		}
		c.PointerUp(s.Stroke[len(s.Stroke)-1].point())
	case s.Image != "":
		_, err := c.PlaceImage(ctx, s.Image)
		return err
	case s.Sticker != "":
		_, err := c.PlaceSticker(ctx, s.Sticker)
		return err
	case s.Background != "":
		col, err := colorutil.ParseHex(s.Background)
		if err != nil {
			return err
		}
		c.SetBackground(col)
	case s.Pen != nil:
		return pen(c, *s.Pen)
	case s.TextColor != "":
		col, err := colorutil.ParseHex(s.TextColor)
		if err != nil {
			return err
		}
		c.SetTextColor(col)
	case s.Font != 0:
		for i := 0; i < abs(s.Font); i++ {
			if s.Font > 0 {
				c.IncreaseFontSize()
			} else {
				c.DecreaseFontSize()
			}
		}
	}
	return nil
}

func drag(c *interaction.Controller, d Drag) error {
	from, to := d.From.point(), d.To.point()
	n := d.Steps
	if n < 1 {
		n = 1
	}
	if err := c.PointerDown(from); err != nil {
		return err
	}
	delta := to.Sub(from)
	for i := 1; i <= n; i++ {
		c.PointerMove(from.Add(delta.Scale(float64(i) / float64(n))))
	}
	c.PointerUp(to)
	return nil
}

func pen(c *interaction.Controller, p Pen) error {
	if p.Color != "" {
		col, err := colorutil.ParseHex(p.Color)
		if err != nil {
			return err
		}
		c.SetPenColor(col)
	}
	if p.Width != 0 {
		c.SetPenWidth(p.Width)
	}
	if p.Erase {
		c.SetErase(true)
	}
	return nil
}

func (p Point) point() geometry.Point2D {
	return geometry.NewPoint2D(p[0], p[1])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
