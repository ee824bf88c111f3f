package types

import "time"

// TrackingInfo is the free-form shipment tracking blob attached to an order.
type TrackingInfo struct {
	Carrier     string     `json:"carrier,omitempty"`
	Location    string     `json:"location,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// PixArtifacts captures what the gateway returned when a PIX charge was
// created: the copyable code, the QR image reference and the expiry.
type PixArtifacts struct {
	TransactionID string     `json:"transaction_id,omitempty"`
	Code          string     `json:"code,omitempty"`
	QRImageURL    string     `json:"qr_image_url,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Note is a single timestamped entry in a pending checkout's follow-up log.
type Note struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
