package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type outputOptions struct {
	format    string
	countries int
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "o", formatText, "output format (text, json)")
	cmd.Flags().IntVar(&o.countries, "countries", 0, "show the top N countries by signatures (needs --detail)")
}

// printer writes petitions to the command output.
type printer struct {
	w    io.Writer
	opts outputOptions
	enc  *json.Encoder
}

func newPrinter(w io.Writer, opts outputOptions) *printer {
	return &printer{w: w, opts: opts, enc: json.NewEncoder(w)}
}

func (pr *printer) petition(cur, old *petition.Petition) error {
	if pr.opts.format == formatJSON {
		return pr.enc.Encode(cur)
	}

	if _, err := fmt.Fprintf(pr.w, "Action: %s\n", cur.Action); err != nil {
		return err
	}
	if old != nil {
		_, err := fmt.Fprintf(pr.w, "Signatures: %d (was %d)\n", cur.SignatureCount, old.SignatureCount)
		if err != nil {
			return err
		}
	} else if _, err := fmt.Fprintf(pr.w, "Signatures: %d\n", cur.SignatureCount); err != nil {
		return err
	}

	if pr.opts.countries > 0 && len(cur.SignaturesByCountry) > 0 {
		for _, c := range topCountries(cur, pr.opts.countries) {
			share := 0.0
			if cur.SignatureCount > 0 {
				share = float64(c.SignatureCount) / float64(cur.SignatureCount) * 100
			}
			if _, err := fmt.Fprintf(pr.w, "  %s: %d (%.4f%%)\n", c.Name, c.SignatureCount, share); err != nil {
				return err
			}
		}
	}
	return nil
}

func (pr *printer) summary(n int) error {
	if pr.opts.format == formatJSON {
		return nil
	}
	_, err := fmt.Fprintf(pr.w, "%d petitions\n", n)
	return err
}

// topCountries returns the n countries with the most signatures.
func topCountries(p *petition.Petition, n int) []petition.CountrySignatures {
	countries := append([]petition.CountrySignatures(nil), p.SignaturesByCountry...)
	sort.SliceStable(countries, func(i, j int) bool {
		return countries[i].SignatureCount > countries[j].SignatureCount
	})
	if len(countries) > n {
		countries = countries[:n]
	}
	return countries
}
