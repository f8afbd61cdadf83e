package shop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medstore/internal/cart"
	"medstore/internal/catalog"
	"medstore/internal/checkout"
	"medstore/internal/ident"
	"medstore/internal/payment"
	"medstore/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

const requestTimeout = 30 * time.Second

// Component events bridged into the program.
type (
	snapshotMsg      catalog.Snapshot
	cartEventMsg     cart.Event
	checkoutEventMsg checkout.Event
)

// storageChangedMsg reports a key rewritten by another process.
type storageChangedMsg struct{ key string }

// refreshDoneMsg carries the result of a catalog refresh.
type refreshDoneMsg struct {
	snap catalog.Snapshot
	err  error
}

// submitDoneMsg carries the result of a checkout submission.
type submitDoneMsg struct {
	res checkout.Result
	err error
}

// pageLoadedMsg carries an order status or payment page.
type pageLoadedMsg struct {
	page    Page
	payment payment.Page
	err     error
}

// uploadDoneMsg carries the uploaded proof URL.
type uploadDoneMsg struct {
	url string
	err error
}

// waitForEvent delivers the next component event.
func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// watchStorage delivers the next key changed on disk.
func watchStorage(w *store.Watcher) tea.Cmd {
	return func() tea.Msg {
		key, ok := <-w.Changes()
		if !ok {
			return nil
		}
		return storageChangedMsg{key: key}
	}
}

func refreshCatalog(l *catalog.Loader) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := l.Refresh(ctx)
		return refreshDoneMsg{snap: snap, err: err}
	}
}

func submitOrder(m *checkout.Machine, form checkout.Form) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := m.Submit(ctx, form)
		return submitDoneMsg{res: res, err: err}
	}
}

func loadStatus(s *payment.Service, id ident.ID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := s.LoadStatus(ctx, id)
		return pageLoadedMsg{page: PageOrder, payment: p, err: err}
	}
}

func loadPayment(s *payment.Service, id ident.ID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := s.LoadPayment(ctx, id)
		return pageLoadedMsg{page: PagePayment, payment: p, err: err}
	}
}

func uploadProof(s *payment.Service, id ident.ID, path, note string) tea.Cmd {
	return func() tea.Msg {
		path = strings.TrimSpace(path)
		if path == "" {
			return uploadDoneMsg{err: payment.ErrNoFile}
		}
		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{err: fmt.Errorf("open %s: %w", path, err)}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		url, err := s.UploadProof(ctx, id, filepath.Base(path), f, note)
		return uploadDoneMsg{url: url, err: err}
	}
}
