package pager

import (
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/Sternrassler/uk-petitions/pkg/snapshot"
)

// Observer receives the pager's notifications. Calls are made one at a time
// from the pager's loader goroutine. Records passed in must not be modified.
type Observer interface {
	// OnPetition reports a new petition (old is nil) or a changed one.
	OnPetition(cur, old *petition.Petition)

	// OnRemoved reports a petition deleted from the snapshot. cur is the
	// record that triggered the removal, old the value that was stored.
	OnRemoved(cur, old *petition.Petition)

	// OnError reports fetch, transform and page descriptor failures.
	OnError(err error)

	// OnPageLoaded reports a page whose items have all been processed.
	OnPageLoaded(page *petition.Page)

	// OnLoaded reports the end of a traversal.
	OnLoaded(view snapshot.View)
}

// ObserverFuncs adapts optional functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Petition   func(cur, old *petition.Petition)
	Removed    func(cur, old *petition.Petition)
	Error      func(err error)
	PageLoaded func(page *petition.Page)
	Loaded     func(view snapshot.View)
}

func (f ObserverFuncs) OnPetition(cur, old *petition.Petition) {
	if f.Petition != nil {
		f.Petition(cur, old)
	}
}

func (f ObserverFuncs) OnRemoved(cur, old *petition.Petition) {
	if f.Removed != nil {
		f.Removed(cur, old)
	}
}

func (f ObserverFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f ObserverFuncs) OnPageLoaded(page *petition.Page) {
	if f.PageLoaded != nil {
		f.PageLoaded(page)
	}
}

func (f ObserverFuncs) OnLoaded(view snapshot.View) {
	if f.Loaded != nil {
		f.Loaded(view)
	}
}
