package chrome

import (
	"context"
	"fmt"
)

// EmulateNetworkConditions sets network throttling conditions on the page.
func (p *Page) EmulateNetworkConditions(ctx context.Context, conditions NetworkConditions) error {
	_, err := p.call(ctx, "Network.enable", nil)
	if err != nil {
		return fmt.Errorf("enabling Network domain: %w", err)
	}

	_, err = p.call(ctx, "Network.emulateNetworkConditions", map[string]interface{}{
		"offline":            conditions.Offline,
		"latency":            conditions.Latency,
		"downloadThroughput": conditions.DownloadThroughput,
		"uploadThroughput":   conditions.UploadThroughput,
	})
	if err != nil {
		return fmt.Errorf("emulating network conditions: %w", err)
	}
	return nil
}

// DisableNetworkThrottling removes any network throttling.
func (p *Page) DisableNetworkThrottling(ctx context.Context) error {
	return p.EmulateNetworkConditions(ctx, NetworkConditions{
		Offline:            false,
		Latency:            0,
		DownloadThroughput: -1,
		UploadThroughput:   -1,
	})
}
