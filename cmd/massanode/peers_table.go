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

package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

type peerRow struct {
	ID        string            `json:"id"`
	State     string            `json:"state"`
	Listeners map[string]string `json:"listeners"`
	Timestamp uint64            `json:"timestamp"`
}

// renderPeersTable reads a JSON array of peer rows from r and prints them
// as a table, coloring the state column so a scanning operator's eye goes
// straight to anything Banned.
func renderPeersTable(r io.Reader) error {
	var rows []peerRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Peer ID", "State", "Listeners", "Last Announce"})

	for _, row := range rows {
		listeners := make([]string, 0, len(row.Listeners))
		for addr, typ := range row.Listeners {
			listeners = append(listeners, addr+"/"+typ)
		}
		table.Append([]string{
			row.ID,
			colorState(row.State),
			strings.Join(listeners, ", "),
			strconv.FormatUint(row.Timestamp, 10),
		})
	}
	table.Render()
	return nil
}

func colorState(state string) string {
	switch state {
	case "banned":
		return color.RedString(state)
	case "trusted":
		return color.GreenString(state)
	case "in-handshake":
		return color.YellowString(state)
	default:
		return state
	}
}
