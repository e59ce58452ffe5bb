package model

import "testing"

// TestSubscriber_Eligible はステータスと確認フラグの全組み合わせで
// 配信対象判定を検証する。
func TestSubscriber_Eligible(t *testing.T) {
	tests := []struct {
		name      string
		status    SubscriberStatus
		confirmed bool
		want      bool
	}{
		{"active confirmed", SubscriberStatusActive, true, true},
		{"active unconfirmed", SubscriberStatusActive, false, false},
		{"unsubscribed confirmed", SubscriberStatusUnsubscribed, true, false},
		{"unsubscribed unconfirmed", SubscriberStatusUnsubscribed, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subscriber{Status: tt.status, EmailConfirmed: tt.confirmed}
			if got := s.Eligible(); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
