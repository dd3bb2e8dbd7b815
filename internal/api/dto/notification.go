package dto

type SendEmailRequest struct {
	Kind string `json:"kind"`
}

type SendEmailResponse struct {
	EmailSent bool `json:"email_sent"`
}

type BulkSendRequest struct {
	Kind string `json:"kind"`
}

// BulkSendResponse carries only the queued count: the job runs detached and
// its per-message outcomes are observable later through the listing.
type BulkSendResponse struct {
	Queued int `json:"queued"`
}

type ImportSendRequest struct {
	IDs []int64 `json:"ids"`
}

// ImportSendResponse reports the per-batch delivery outcome. Queued can
// exceed Sent+Failed when some packages already had their email sent.
type ImportSendResponse struct {
	Queued int `json:"queued"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
