package partner

import (
	"time"

	"appsales/internal/core"
)

// transactionsQuery selects one page of app subscription sales. The page size
// is the API ceiling.
const transactionsQuery = `query($cursor: String, $createdAtMin: DateTime, $createdAtMax: DateTime) {
  transactions(types: [APP_SUBSCRIPTION_SALE], after: $cursor, first: 100, createdAtMin: $createdAtMin, createdAtMax: $createdAtMax) {
    edges {
      cursor
      node {
        id
        createdAt
        ... on AppSubscriptionSale {
          netAmount {
            amount
          }
          app {
            id
            name
          }
          shop {
            name
            myshopifyDomain
          }
        }
      }
    }
    pageInfo {
      hasNextPage
    }
  }
}`

type (
	requestBody struct {
		Query     string    `json:"query"`
		Variables variables `json:"variables"`
	}

	variables struct {
		Cursor       string `json:"cursor"`
		CreatedAtMin string `json:"createdAtMin"`
		CreatedAtMax string `json:"createdAtMax"`
	}

	response struct {
		Data   *responseData  `json:"data"`
		Errors []graphQLError `json:"errors"`
	}

	graphQLError struct {
		Message string `json:"message"`
	}

	responseData struct {
		Transactions *page `json:"transactions"`
	}

	page struct {
		Edges    []edge   `json:"edges"`
		PageInfo pageInfo `json:"pageInfo"`
	}

	pageInfo struct {
		HasNextPage bool `json:"hasNextPage"`
	}

	edge struct {
		Cursor string `json:"cursor"`
		Node   node   `json:"node"`
	}

	node struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"createdAt"`
		NetAmount struct {
			Amount string `json:"amount"`
		} `json:"netAmount"`
		App struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"app"`
		Shop struct {
			Name            string `json:"name"`
			MyshopifyDomain string `json:"myshopifyDomain"`
		} `json:"shop"`
	}
)

func newRequestBody(cursor string, r core.Range) requestBody {
	return requestBody{
		Query: transactionsQuery,
		Variables: variables{
			Cursor:       cursor,
			CreatedAtMin: r.Start.UTC().Format(time.RFC3339),
			CreatedAtMax: r.End.UTC().Format(time.RFC3339),
		},
	}
}

func (e edge) record() core.Record {
	return core.Record{
		Cursor: e.Cursor,
		Node: core.Transaction{
			ID:        e.Node.ID,
			CreatedAt: e.Node.CreatedAt,
			NetAmount: core.NetAmount{Amount: e.Node.NetAmount.Amount},
			App:       core.App{ID: e.Node.App.ID, Name: e.Node.App.Name},
			Shop:      core.Shop{Name: e.Node.Shop.Name, MyshopifyDomain: e.Node.Shop.MyshopifyDomain},
		},
	}
}

// nextCursor returns the cursor of the last edge of this page, which the
// following request continues after.
func (p *page) nextCursor() (string, error) {
	if len(p.Edges) == 0 {
		return "", ErrContractViolation
	}
	return p.Edges[len(p.Edges)-1].Cursor, nil
}
