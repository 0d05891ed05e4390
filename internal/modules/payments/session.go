package payments

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

// completedSession is the subset of a checkout session object this service
// reads. Decoded locally so it does not depend on the SDK's field layout
// for a given API version.
type completedSession struct {
	ID            string            `json:"id"`
	AmountTotal   *int64            `json:"amount_total"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`

	CustomerDetails *struct {
		Email   string          `json:"email"`
		Name    string          `json:"name"`
		Phone   string          `json:"phone"`
		Address *sessionAddress `json:"address"`
	} `json:"customer_details"`

	ShippingDetails      *shippingDetails `json:"shipping_details"`
	CollectedInformation *struct {
		ShippingDetails *shippingDetails `json:"shipping_details"`
	} `json:"collected_information"`
}

type shippingDetails struct {
	Name    string          `json:"name"`
	Address *sessionAddress `json:"address"`
}

type sessionAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   sessionAddress
}

func parseCompletedSession(raw json.RawMessage) (completedSession, error) {
	var s completedSession
	if len(raw) == 0 {
		return s, errors.New("event has no data object")
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, err
	}
	if s.ID == "" {
		return s, errors.New("session id missing")
	}
	return s, nil
}

// customer collects the buyer's contact and ship-to data. Shipping details
// win over customer details when both are present.
func (s completedSession) customer() customer {
	var c customer
	var name string

	ship := s.ShippingDetails
	if s.CollectedInformation != nil && s.CollectedInformation.ShippingDetails != nil {
		ship = s.CollectedInformation.ShippingDetails
	}
	if ship != nil {
		name = ship.Name
		if ship.Address != nil {
			c.Address = *ship.Address
		}
	}

	if cd := s.CustomerDetails; cd != nil {
		c.Email = cd.Email
		c.Phone = cd.Phone
		if name == "" {
			name = cd.Name
		}
		if c.Address == (sessionAddress{}) && cd.Address != nil {
			c.Address = *cd.Address
		}
	}
	if c.Email == "" {
		c.Email = s.CustomerEmail
	}
	c.Email = strings.TrimSpace(c.Email)
	c.FirstName, c.LastName = splitName(name)
	return c
}

// splitName splits on the first run of whitespace.
func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	i := strings.IndexFunc(full, unicode.IsSpace)
	if i < 0 {
		return full, ""
	}
	return full[:i], strings.TrimSpace(full[i:])
}
