package data

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User maps to the users collection. The password hash never leaves the server.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"userId"`
	Email        string        `bson:"email" json:"email"`
	Name         string        `bson:"name" json:"name"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	CreatedAt    time.Time     `bson:"created_at" json:"createdAt"`
}

type ListingType string

const (
	ListingSell     ListingType = "Sell"
	ListingBuy      ListingType = "Buy"
	ListingExchange ListingType = "Exchange"
)

func (t ListingType) Valid() bool {
	switch t {
	case ListingSell, ListingBuy, ListingExchange:
		return true
	}
	return false
}

type Condition string

const (
	ConditionLikeNew Condition = "Like New"
	ConditionGood    Condition = "Good"
	ConditionFair    Condition = "Fair"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// Owner identifies who may delete a listing and who receives inquiries.
// Listings created by a signed-in user carry UserID, Name and Email; listings
// created anonymously carry a Name and a free-form Contact.
type Owner struct {
	UserID  string `bson:"user_id,omitempty" json:"userId,omitempty"`
	Name    string `bson:"name,omitempty" json:"name,omitempty"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Contact string `bson:"contact,omitempty" json:"-"`
}

// DisplayContact is the string shown to buyers.
func (o Owner) DisplayContact() string {
	if o.Email != "" {
		return o.Email
	}
	return o.Contact
}

func (o Owner) MarshalJSON() ([]byte, error) {
	type plain Owner
	return json.Marshal(struct {
		plain
		Contact string `json:"contact,omitempty"`
	}{plain(o), o.DisplayContact()})
}

// UnmarshalJSON accepts the output of MarshalJSON. The derived contact is
// only kept when it is not just the email.
func (o *Owner) UnmarshalJSON(b []byte) error {
	type plain Owner
	var aux struct {
		plain
		Contact string `json:"contact"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*o = Owner(aux.plain)
	if aux.Contact != o.Email {
		o.Contact = aux.Contact
	}
	return nil
}

// Message is one entry of a listing's inquiry transcript.
type Message struct {
	SenderName string    `bson:"sender_name" json:"senderName"`
	Text       string    `bson:"text" json:"text"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// Listing maps to the listings collection. Messages is nil in list results
// because the summary query projects it away.
type Listing struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Author      string        `bson:"author,omitempty" json:"author,omitempty"`
	Price       float64       `bson:"price" json:"price"`
	ListingType ListingType   `bson:"listing_type" json:"listingType"`
	Condition   Condition     `bson:"condition" json:"condition"`
	Image       string        `bson:"image,omitempty" json:"image,omitempty"`
	Owner       Owner         `bson:"owner" json:"owner"`
	Messages    []Message     `bson:"messages,omitempty" json:"messages,omitzero"`
	CreatedAt   time.Time     `bson:"created_at" json:"createdAt"`
}
