// Command fleetctl fetches a tracker's current aircraft snapshot over
// HTTP and renders it as a table, following the teacher's one-shot
// operator-CLI pattern.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

type aircraftRow struct {
	Hex      string  `json:"hex"`
	Flight   string  `json:"flight"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Altitude int32   `json:"altitude"`
	Track    float64 `json:"track"`
	Speed    float64 `json:"speed"`
	Type     string  `json:"type"`
	Messages uint64  `json:"messages"`
	Seen     int64   `json:"seen"`
	Source   string  `json:"source"`
}

type snapshot struct {
	Now      float64       `json:"now"`
	Messages uint64        `json:"messages"`
	Aircraft []aircraftRow `json:"aircraft"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: fleetctl <tracker-http-addr>")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "fleetctl:", err)
		os.Exit(1)
	}
}

func run(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/data/aircraft.json")
	if err != nil {
		return errors.Wrap(err, "fetching aircraft.json")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("tracker returned HTTP %d", resp.StatusCode)
	}

	var snap snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return errors.Wrap(err, "decoding aircraft.json")
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Hex", "Flight", "Lat", "Lon", "Alt (ft)", "Speed (kt)", "Track", "Type", "Msgs", "Seen (s)", "Source"})
	for _, r := range snap.Aircraft {
		table.Append([]string{
			r.Hex,
			r.Flight,
			fmt.Sprintf("%.4f", r.Lat),
			fmt.Sprintf("%.4f", r.Lon),
			fmt.Sprintf("%d", r.Altitude),
			fmt.Sprintf("%.0f", r.Speed),
			fmt.Sprintf("%.0f", r.Track),
			r.Type,
			fmt.Sprintf("%d", r.Messages),
			fmt.Sprintf("%d", r.Seen),
			r.Source,
		})
	}
	table.Render()
	return nil
}
