package livestream

import "github.com/Its-donkey/shrine-live/internal/ui/model"

// Notification themes.
const (
	ThemeLive     = "live"
	ThemeUpcoming = "upcoming"
)

// Visibility is the notification state for one mount.
//
// Active and Upcoming are mutually exclusive. Dismissed is sticky for the
// lifetime of the mount. LastSeq is the tag of the newest observation applied.
type Visibility struct {
	Active         *model.Broadcast `json:"active,omitempty"`
	Upcoming       *model.Broadcast `json:"upcoming,omitempty"`
	Visible        bool             `json:"visible"`
	Dismissed      bool             `json:"dismissed"`
	MobileMenuOpen bool             `json:"mobile_menu_open"`
	LastSeq        uint64           `json:"last_seq"`
}

// NotificationView is what gets rendered.
type NotificationView struct {
	Broadcast model.Broadcast
	IsLive    bool
	Theme     string
}

// Apply folds one tick's observation into the state and reports whether
// anything that affects rendering changed. Observations tagged older than the
// last applied one are discarded. With clearOnLapse a KindNone observation
// hides a previously selected broadcast; otherwise it leaves state alone.
func (v *Visibility) Apply(obs Observation, clearOnLapse bool) bool {
	if obs.Seq < v.LastSeq {
		return false
	}
	v.LastSeq = obs.Seq

	before := v.fingerprint()
	switch obs.Kind {
	case KindActive:
		if obs.Broadcast == nil {
			return false
		}
		b := *obs.Broadcast
		v.Active = &b
		v.Upcoming = nil
		v.Visible = true
	case KindUpcoming:
		if obs.Broadcast == nil {
			return false
		}
		b := *obs.Broadcast
		v.Upcoming = &b
		v.Active = nil
		v.Visible = true
	default:
		if !clearOnLapse {
			return false
		}
		v.Active = nil
		v.Upcoming = nil
		v.Visible = false
	}
	return before != v.fingerprint()
}

// Dismiss hides the notification for the rest of the mount.
func (v *Visibility) Dismiss() bool {
	if v.Dismissed && !v.Visible {
		return false
	}
	v.Dismissed = true
	v.Visible = false
	return true
}

// SetMobileMenuOpen records the navigation menu state.
func (v *Visibility) SetMobileMenuOpen(open bool) bool {
	if v.MobileMenuOpen == open {
		return false
	}
	v.MobileMenuOpen = open
	return true
}

// Current returns the selected broadcast, active first.
func (v Visibility) Current() (*model.Broadcast, bool) {
	if v.Active != nil {
		return v.Active, true
	}
	return v.Upcoming, false
}

// View decides what to render. It returns nil when the notification is
// suppressed.
func (v Visibility) View() *NotificationView {
	if !v.Visible || v.Dismissed || v.MobileMenuOpen {
		return nil
	}
	current, live := v.Current()
	if current == nil {
		return nil
	}
	theme := ThemeUpcoming
	if live {
		theme = ThemeLive
	}
	return &NotificationView{Broadcast: *current, IsLive: live, Theme: theme}
}

type visibilityFingerprint struct {
	active, upcoming model.Broadcast
	hasActive        bool
	hasUpcoming      bool
	visible          bool
}

func (v Visibility) fingerprint() visibilityFingerprint {
	fp := visibilityFingerprint{visible: v.Visible}
	if v.Active != nil {
		fp.active, fp.hasActive = *v.Active, true
	}
	if v.Upcoming != nil {
		fp.upcoming, fp.hasUpcoming = *v.Upcoming, true
	}
	return fp
}
