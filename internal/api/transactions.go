package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// CreateTransaction sends money from a wallet to a beneficiary.
func (c *Client) CreateTransaction(ctx context.Context, req CreateTransactionRequest) error {
	if err := c.send(ctx, http.MethodPost, "/transaction", req); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}
	return nil
}

// GetTransactions fetches one page of the user's transactions, newest first.
// The server answers 404 when there are none; that is an empty page here.
func (c *Client) GetTransactions(ctx context.Context, page, pageSize int) (*TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}

	var txs []Transaction
	hdr, err := c.do(ctx, http.MethodGet, "/transaction/all", q, nil, &txs)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &TransactionPage{
				Transactions: []Transaction{},
				Page:         Page{Page: page, PageSize: pageSize},
				FetchedAt:    time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("fetching transactions page %d: %w", page, err)
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return &TransactionPage{
		Transactions: txs,
		Page:         pageFromHeader(hdr, page, pageSize, len(txs)),
		FetchedAt:    time.Now(),
	}, nil
}

// pageFromHeader reads the pagination headers, falling back to what the
// request asked for when the server omits them.
func pageFromHeader(h http.Header, page, pageSize, n int) Page {
	p := Page{
		Page:         atoiOr(h.Get(HeaderPage), page),
		PageSize:     atoiOr(h.Get(HeaderPageSize), pageSize),
		TotalRecords: atoiOr(h.Get(HeaderTotal), n),
		TotalPages:   atoiOr(h.Get(HeaderTotalPages), 1),
	}
	p.HasNextPage = h.Get(HeaderHasNextPage) == "true"
	p.HasPreviousPage = h.Get(HeaderHasPreviousPage) == "true"
	if h.Get(HeaderHasPreviousPage) == "" {
		p.HasPreviousPage = p.Page > 1
	}
	return p
}
