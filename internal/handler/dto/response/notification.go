package response

import (
	"practice-hub/internal/usecase/commands"
)

type NotificationResponse struct {
	Status     string             `json:"status"`
	Deliveries []DeliveryResponse `json:"deliveries"`
	Failures   []FailureResponse  `json:"failures,omitempty"`
}

type DeliveryResponse struct {
	Recipient string `json:"recipient"`
	Status    string `json:"status"`
}

// Failures carry the recipient only; provider errors stay in the logs.
type FailureResponse struct {
	Recipient string `json:"recipient"`
}

func FromNotifyResult(r commands.NotifyResult) *NotificationResponse {
	switch v := r.(type) {
	case commands.NotifyOK:
		return &NotificationResponse{Status: "ok", Deliveries: fromDeliveries(v.Deliveries)}
	case commands.NotifyFailed:
		res := &NotificationResponse{Status: "failed", Deliveries: fromDeliveries(v.Deliveries)}
		for _, f := range v.Failures {
			res.Failures = append(res.Failures, FailureResponse{Recipient: f.Recipient})
		}
		return res
	default:
		return nil
	}
}

func fromDeliveries(ds []commands.DeliveryResult) []DeliveryResponse {
	res := make([]DeliveryResponse, 0, len(ds))
	for _, d := range ds {
		res = append(res, DeliveryResponse{Recipient: d.Recipient, Status: string(d.Status)})
	}
	return res
}
