package pager_test

import (
	"context"
	"fmt"

	"github.com/Sternrassler/uk-petitions/pkg/loader"
	"github.com/Sternrassler/uk-petitions/pkg/pager"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/Sternrassler/uk-petitions/pkg/snapshot"
	"github.com/rs/zerolog"
)

func ExamplePager_Populate() {
	pages := loader.PageFetcherFunc(func(ctx context.Context, page loader.Page) (*petition.Page, error) {
		return &petition.Page{
			Data: []petition.Raw{
				{ID: 1, Type: "petition", Attributes: petition.Attributes{Action: "Plant more trees", State: "open", SignatureCount: 120}},
				{ID: 2, Type: "petition", Attributes: petition.Attributes{Action: "Fund local libraries", State: "open", SignatureCount: 15000}},
			},
		}, nil
	})

	cfg := pager.DefaultConfig()
	cfg.LoadInterval = 0
	p, err := pager.New(pages, nil, cfg, zerolog.Nop())
	if err != nil {
		fmt.Println(err)
		return
	}
	defer p.Stop()

	done := make(chan struct{})
	p.Subscribe(pager.ObserverFuncs{
		Petition: func(cur, old *petition.Petition) {
			fmt.Printf("new: %s (%d)\n", cur.Action, cur.SignatureCount)
		},
		Loaded: func(view snapshot.View) {
			fmt.Printf("loaded %d petitions\n", view.Count())
			close(done)
		},
	})

	p.Populate(nil, nil)
	<-done

	// Output:
	// new: Plant more trees (120)
	// new: Fund local libraries (15000)
	// loaded 2 petitions
}
