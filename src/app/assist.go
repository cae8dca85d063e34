package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"lighthouse/src/vision"
)

var errNoVision = errors.New("vision client is not configured")

func (a *App) visionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.settings().visionDeadline)
}

func (a *App) MoondreamQuery(ctx context.Context, image, question string) (*vision.QueryResult, error) {
	if a.vision == nil {
		return nil, errNoVision
	}
	ctx, cancel := a.visionContext(ctx)
	defer cancel()
	return a.vision.Query(ctx, image, question)
}

func (a *App) MoondreamPoint(ctx context.Context, image, object string) (*vision.PointResult, error) {
	if a.vision == nil {
		return nil, errNoVision
	}
	ctx, cancel := a.visionContext(ctx)
	defer cancel()
	return a.vision.Point(ctx, image, object)
}

func (a *App) MoondreamDetect(ctx context.Context, image, object string) (*vision.DetectResult, error) {
	if a.vision == nil {
		return nil, errNoVision
	}
	ctx, cancel := a.visionContext(ctx)
	defer cancel()
	return a.vision.Detect(ctx, image, object)
}

// Locate captures the screen, asks for points and boxes of object in
// parallel and shows them on the overlay.
func (a *App) Locate(ctx context.Context, object string) (*OverlayPayload, error) {
	object = strings.TrimSpace(object)
	if object == "" {
		return nil, errors.New("nothing to locate")
	}
	if a.vision == nil {
		return nil, errNoVision
	}

	image, err := a.TakeScreenshot()
	if err != nil {
		return nil, fmt.Errorf("capture failed: %w", err)
	}

	ctx, cancel := a.visionContext(ctx)
	defer cancel()

	var points *vision.PointResult
	var boxes *vision.DetectResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		points, err = a.vision.Point(gctx, image, object)
		return err
	})
	g.Go(func() error {
		var err error
		boxes, err = a.vision.Detect(gctx, image, object)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Printf("app: locate %q: %d points, %d boxes", object, len(points.Points), len(boxes.Objects))

	caption := object
	p := OverlayPayload{
		Points:  PointsFromVision(points.Points),
		Boxes:   BoxesFromVision(boxes.Objects),
		Caption: &caption,
	}
	if err := a.OpenScreenOverlay(p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Ask captures the screen and asks question about it.
func (a *App) Ask(ctx context.Context, question string) (*vision.QueryResult, string, error) {
	image, err := a.TakeScreenshot()
	if err != nil {
		return nil, "", fmt.Errorf("capture failed: %w", err)
	}
	res, err := a.MoondreamQuery(ctx, image, question)
	if err != nil {
		return nil, "", err
	}
	return res, image, nil
}
