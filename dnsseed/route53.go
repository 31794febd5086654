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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
)

// changeBatchLimit caps the number of resource record changes submitted in
// a single ChangeResourceRecordSets call, matching Route53's own limit.
const changeBatchLimit = 700

// Route53Backend publishes TXT records into a single hosted zone.
type Route53Backend struct {
	Client       *route53.Client
	HostedZoneID string
	TTL          int64
}

// NewRoute53Backend builds a Route53Backend from static credentials,
// falling back to the SDK's default credential chain (environment,
// shared config, EC2/ECS role) when accessKeyID is empty.
func NewRoute53Backend(ctx context.Context, accessKeyID, secretAccessKey, hostedZoneID string, ttl int64) (*Route53Backend, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if accessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Route53Backend{
		Client:       route53.NewFromConfig(cfg),
		HostedZoneID: hostedZoneID,
		TTL:          ttl,
	}, nil
}

func (b *Route53Backend) ListTXT(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	var startName *string
	var startType types.RRType

	for {
		resp, err := b.Client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
			HostedZoneId:    &b.HostedZoneID,
			StartRecordName: startName,
			StartRecordType: startType,
		})
		if err != nil {
			return nil, err
		}
		for _, rrset := range resp.ResourceRecordSets {
			if rrset.Type != types.RRTypeTxt || len(rrset.ResourceRecords) == 0 {
				continue
			}
			out[trimDot(*rrset.Name)] = unquote(*rrset.ResourceRecords[0].Value)
		}
		if !resp.IsTruncated {
			break
		}
		startName = resp.NextRecordName
		startType = resp.NextRecordType
	}
	return out, nil
}

func (b *Route53Backend) ApplyChanges(ctx context.Context, upsert map[string]string, del []string) error {
	changes := make([]types.Change, 0, len(upsert)+len(del))
	for name, value := range upsert {
		changes = append(changes, b.change(types.ChangeActionUpsert, name, value))
	}
	for _, name := range del {
		changes = append(changes, b.change(types.ChangeActionDelete, name, ""))
	}

	for _, batch := range splitChanges(changes, changeBatchLimit) {
		_, err := b.Client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
			HostedZoneId: &b.HostedZoneID,
			ChangeBatch:  &types.ChangeBatch{Changes: batch},
		})
		if err != nil {
			return fmt.Errorf("route53 change batch: %w", err)
		}
	}
	return nil
}

func (b *Route53Backend) change(action types.ChangeAction, name, value string) types.Change {
	c := types.Change{
		Action: action,
		ResourceRecordSet: &types.ResourceRecordSet{
			Name: &name,
			Type: types.RRTypeTxt,
			TTL:  &b.TTL,
		},
	}
	if action != types.ChangeActionDelete {
		quoted := quote(value)
		c.ResourceRecordSet.ResourceRecords = []types.ResourceRecord{{Value: &quoted}}
	}
	return c
}

// splitChanges partitions changes into batches of at most limit entries,
// preserving order.
func splitChanges(changes []types.Change, limit int) [][]types.Change {
	var batches [][]types.Change
	for len(changes) > 0 {
		n := limit
		if n > len(changes) {
			n = len(changes)
		}
		batches = append(batches, changes[:n])
		changes = changes[n:]
	}
	return batches
}

func quote(s string) string   { return `"` + s + `"` }
func unquote(s string) string { return trimQuotes(s) }

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func trimDot(s string) string {
	if len(s) > 0 && s[len(s)-1] == '.' {
		return s[:len(s)-1]
	}
	return s
}
