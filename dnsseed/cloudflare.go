// Copyright 2022 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package dnsseed

import (
	"context"
	"fmt"

	cloudflare "github.com/cloudflare/cloudflare-go"
)

// CloudflareBackend publishes TXT records into a single Cloudflare zone.
type CloudflareBackend struct {
	API    *cloudflare.API
	ZoneID string
	TTL    int
}

func (b *CloudflareBackend) ListTXT(ctx context.Context) (map[string]string, error) {
	rc := cloudflare.ZoneIdentifier(b.ZoneID)
	records, _, err := b.API.ListDNSRecords(ctx, rc, cloudflare.ListDNSRecordsParams{Type: "TXT"})
	if err != nil {
		return nil, fmt.Errorf("cloudflare list dns records: %w", err)
	}
	out := make(map[string]string, len(records))
	for _, r := range records {
		out[r.Name] = trimQuotes(r.Content)
	}
	return out, nil
}

func (b *CloudflareBackend) ApplyChanges(ctx context.Context, upsert map[string]string, del []string) error {
	rc := cloudflare.ZoneIdentifier(b.ZoneID)

	existing, err := b.recordIDsByName(ctx, rc)
	if err != nil {
		return err
	}

	for name, value := range upsert {
		content := quote(value)
		if id, ok := existing[name]; ok {
			_, err := b.API.UpdateDNSRecord(ctx, rc, cloudflare.UpdateDNSRecordParams{
				ID: id, Type: "TXT", Name: name, Content: content, TTL: b.TTL,
			})
			if err != nil {
				return fmt.Errorf("cloudflare update %s: %w", name, err)
			}
			continue
		}
		_, err := b.API.CreateDNSRecord(ctx, rc, cloudflare.CreateDNSRecordParams{
			Type: "TXT", Name: name, Content: content, TTL: b.TTL,
		})
		if err != nil {
			return fmt.Errorf("cloudflare create %s: %w", name, err)
		}
	}

	for _, name := range del {
		id, ok := existing[name]
		if !ok {
			continue
		}
		if err := b.API.DeleteDNSRecord(ctx, rc, id); err != nil {
			return fmt.Errorf("cloudflare delete %s: %w", name, err)
		}
	}
	return nil
}

func (b *CloudflareBackend) recordIDsByName(ctx context.Context, rc *cloudflare.ResourceContainer) (map[string]string, error) {
	records, _, err := b.API.ListDNSRecords(ctx, rc, cloudflare.ListDNSRecordsParams{Type: "TXT"})
	if err != nil {
		return nil, fmt.Errorf("cloudflare list dns records: %w", err)
	}
	ids := make(map[string]string, len(records))
	for _, r := range records {
		ids[r.Name] = r.ID
	}
	return ids, nil
}
