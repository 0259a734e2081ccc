package browser

import (
	"context"
	"encoding/json"
	"fmt"
)

// Page is a single browser tab, addressed by its CDP target+session id.
type Page struct {
	driver    *Driver
	targetID  string
	sessionID string
}

type createTargetParams struct {
	URL string `json:"url"`
}

type createTargetResult struct {
	TargetID string `json:"targetId"`
}

type attachToTargetParams struct {
	TargetID string `json:"targetId"`
	Flatten  bool   `json:"flatten"`
}

type attachToTargetResult struct {
	SessionID string `json:"sessionId"`
}

// NewPage opens a new tab at the given URL and attaches a CDP session to it.
func NewPage(ctx context.Context, d *Driver, startURL string) (*Page, error) {
	raw, err := d.Call(ctx, "", "Target.createTarget", createTargetParams{URL: startURL})
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	var created createTargetResult
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("parse createTarget result: %w", err)
	}

	raw, err = d.Call(ctx, "", "Target.attachToTarget", attachToTargetParams{TargetID: created.TargetID, Flatten: true})
	if err != nil {
		return nil, fmt.Errorf("attach to target: %w", err)
	}
	var attached attachToTargetResult
	if err := json.Unmarshal(raw, &attached); err != nil {
		return nil, fmt.Errorf("parse attachToTarget result: %w", err)
	}

	return &Page{driver: d, targetID: created.TargetID, sessionID: attached.SessionID}, nil
}

type setDeviceMetricsOverrideParams struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DeviceScaleFactor float64 `json:"deviceScaleFactor"`
	Mobile            bool    `json:"mobile"`
}

// OverrideViewport forces the page's effective viewport, defending against
// drivers that do not apply a browser-level viewport to freshly created
// pages.
func (p *Page) OverrideViewport(ctx context.Context, width, height int) error {
	_, err := p.driver.Call(ctx, p.sessionID, "Emulation.setDeviceMetricsOverride", setDeviceMetricsOverrideParams{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
	return err
}

// Close closes the underlying target.
func (p *Page) Close(ctx context.Context) error {
	_, err := p.driver.Call(ctx, "", "Target.closeTarget", createTargetResult{TargetID: p.targetID})
	return err
}

func (p *Page) TargetID() string { return p.targetID }
