package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/bookhub/internal/data"
	"github.com/PaulBabatuyi/bookhub/internal/logging"
	"github.com/PaulBabatuyi/bookhub/internal/normalize"
)

// ListingStore is the subset of data.ListingsStore the listing service needs.
type ListingStore interface {
	CreateListing(ctx context.Context, l *data.Listing) (*data.Listing, error)
	ListListings(ctx context.Context) ([]*data.Listing, error)
	GetListing(ctx context.Context, id bson.ObjectID) (*data.Listing, error)
	DeleteListing(ctx context.Context, id bson.ObjectID) error
	AppendMessage(ctx context.Context, id bson.ObjectID, msg data.Message) error
}

type ListingsOptions struct {
	// AuthRequired gates create, delete and message on a verified identity.
	// When false, anonymous callers may do all three.
	AuthRequired   bool
	StorageTimeout time.Duration
	// MaxImageBytes caps the encoded image length; zero means no cap.
	MaxImageBytes int
}

// Listings is the listing service.
type Listings struct {
	store ListingStore
	log   logging.Logger
	opts  ListingsOptions
	now   func() time.Time
}

func NewListings(store ListingStore, log logging.Logger, opts ListingsOptions) *Listings {
	return &Listings{store: store, log: log, opts: opts, now: time.Now}
}

// CreateListingInput carries the client-supplied listing fields. Owner and
// Contact are only consulted for anonymous callers.
type CreateListingInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Author      string  `json:"author" validate:"max=200"`
	Price       float64 `json:"price"`
	ListingType string  `json:"listingType"`
	Exchange    bool    `json:"exchange"`
	Condition   string  `json:"condition"`
	Image       string  `json:"image"`
	Owner       string  `json:"owner" validate:"max=200"`
	Contact     string  `json:"contact" validate:"max=200"`
}

type MessageInput struct {
	Text string `json:"text" validate:"required,max=2000"`
	By   string `json:"by" validate:"max=100"`
}

// List returns every listing, newest first, without messages.
func (s *Listings) List(ctx context.Context) ([]*data.Listing, error) {
	sctx, cancel := withTimeout(ctx, s.opts.StorageTimeout)
	defer cancel()

	out, err := s.store.ListListings(sctx)
	if err != nil {
		return nil, internal("failed to list listings", err)
	}
	return out, nil
}

// Get returns one listing with its full message transcript.
func (s *Listings) Get(ctx context.Context, id string) (*data.Listing, error) {
	oid, err := data.ParseID(id)
	if err != nil {
		return nil, ErrListingNotFound
	}

	sctx, cancel := withTimeout(ctx, s.opts.StorageTimeout)
	defer cancel()

	l, err := s.store.GetListing(sctx, oid)
	if err != nil {
		return nil, storeErr(err, "failed to load listing")
	}
	if l.Messages == nil {
		l.Messages = []data.Message{}
	}
	return l, nil
}

// Create stores a new listing. With an identity the owner is always the
// identity; client owner/contact fields are ignored.
func (s *Listings) Create(ctx context.Context, id *Identity, in CreateListingInput) (*data.Listing, error) {
	if id == nil && s.opts.AuthRequired {
		return nil, ErrMissingToken
	}

	in.Title = normalize.Text(in.Title)
	in.Description = normalize.Text(in.Description)
	in.Author = normalize.Text(in.Author)
	in.Owner = normalize.Text(in.Owner)
	in.Contact = normalize.Text(in.Contact)
	in.Image = strings.TrimSpace(in.Image)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	l := &data.Listing{
		Title:       in.Title,
		Description: in.Description,
		Author:      in.Author,
		Image:       in.Image,
	}

	var err error
	if l.ListingType, l.Price, err = resolveType(in); err != nil {
		return nil, err
	}
	if l.Condition, err = resolveCondition(in.Condition); err != nil {
		return nil, err
	}
	if err := s.checkImage(in.Image); err != nil {
		return nil, err
	}

	if id != nil {
		l.Owner = data.Owner{UserID: id.UserID, Name: id.Name, Email: id.Email}
	} else {
		contact := in.Contact
		if contact == "" {
			// older clients sent the contact string as "owner"
			contact = in.Owner
		}
		if contact == "" {
			return nil, invalid("contact is required")
		}
		name := in.Owner
		if name == "" || name == contact {
			name = "Anonymous"
		}
		l.Owner = data.Owner{Name: name, Contact: contact}
	}

	sctx, cancel := withTimeout(ctx, s.opts.StorageTimeout)
	defer cancel()

	created, err := s.store.CreateListing(sctx, l)
	if err != nil {
		return nil, internal("failed to create listing", err)
	}
	s.log.Info(ctx, "listing created", "listing_id", created.ID.Hex(), "type", string(created.ListingType))
	return created, nil
}

// Delete removes a listing. Under the open policy anyone may delete.
func (s *Listings) Delete(ctx context.Context, id *Identity, listingID string) error {
	if id == nil && s.opts.AuthRequired {
		return ErrMissingToken
	}
	oid, err := data.ParseID(listingID)
	if err != nil {
		return ErrListingNotFound
	}

	sctx, cancel := withTimeout(ctx, s.opts.StorageTimeout)
	defer cancel()

	l, err := s.store.GetListing(sctx, oid)
	if err != nil {
		return storeErr(err, "failed to load listing")
	}

	if s.opts.AuthRequired {
		if !ownedBy(l.Owner, id) {
			return ErrNotOwner
		}
	} else if !ownedBy(l.Owner, id) {
		s.log.Warn(ctx, "listing deleted by non-owner under open auth policy", "listing_id", listingID)
	}

	if err := s.store.DeleteListing(sctx, oid); err != nil {
		return storeErr(err, "failed to delete listing")
	}
	s.log.Info(ctx, "listing deleted", "listing_id", listingID)
	return nil
}

// AppendMessage adds an inquiry to the end of a listing's transcript and
// returns the stored message.
func (s *Listings) AppendMessage(ctx context.Context, id *Identity, listingID string, in MessageInput) (*data.Message, error) {
	if id == nil && s.opts.AuthRequired {
		return nil, ErrMissingToken
	}
	in.Text = normalize.Text(in.Text)
	in.By = normalize.Text(in.By)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	oid, err := data.ParseID(listingID)
	if err != nil {
		return nil, ErrListingNotFound
	}

	msg := data.Message{
		SenderName: senderName(id, in.By),
		Text:       in.Text,
		Timestamp:  s.now().UTC().Truncate(time.Millisecond),
	}

	sctx, cancel := withTimeout(ctx, s.opts.StorageTimeout)
	defer cancel()

	if err := s.store.AppendMessage(sctx, oid, msg); err != nil {
		return nil, storeErr(err, "failed to append message")
	}
	return &msg, nil
}

func resolveType(in CreateListingInput) (data.ListingType, float64, error) {
	t := data.ListingType(strings.TrimSpace(in.ListingType))
	switch {
	case t == "" && in.Exchange:
		t = data.ListingExchange
	case t == "":
		t = data.ListingSell
	case !t.Valid():
		return "", 0, invalid("listingType must be one of Sell, Buy, Exchange")
	}

	if t != data.ListingSell {
		return t, 0, nil
	}
	if in.Price <= 0 {
		return "", 0, invalid("price is required for Sell listings")
	}
	return t, in.Price, nil
}

func resolveCondition(c string) (data.Condition, error) {
	cond := data.Condition(strings.TrimSpace(c))
	if cond == "" {
		return data.ConditionGood, nil
	}
	if !cond.Valid() {
		return "", invalid("condition must be one of Like New, Good, Fair")
	}
	return cond, nil
}

// checkImage accepts raw base64 or a base64 data URL.
func (s *Listings) checkImage(img string) error {
	if img == "" {
		return nil
	}
	if s.opts.MaxImageBytes > 0 && len(img) > s.opts.MaxImageBytes {
		return invalid("image is too large")
	}
	payload := img
	if strings.HasPrefix(img, "data:") {
		_, after, ok := strings.Cut(img, ";base64,")
		if !ok {
			return invalid("image must be a base64 data URL")
		}
		payload = after
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return invalid("image must be base64 encoded")
	}
	return nil
}

func ownedBy(o data.Owner, id *Identity) bool {
	if id == nil {
		return false
	}
	if o.UserID != "" {
		return o.UserID == id.UserID
	}
	return o.Email != "" && strings.EqualFold(o.Email, id.Email)
}

func senderName(id *Identity, by string) string {
	switch {
	case id != nil && id.Name != "":
		return id.Name
	case id != nil && id.Email != "":
		return id.Email
	case by != "":
		return by
	default:
		return "Anonymous"
	}
}

func storeErr(err error, msg string) error {
	if errors.Is(err, data.ErrNotFound) {
		return ErrListingNotFound
	}
	return internal(msg, err)
}
