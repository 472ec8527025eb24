package events

type subSettings struct {
	buffer       int
	dropWhenFull bool
	match        map[string]string
}

var subSettingsDefault = subSettings{
	buffer: 16,
}

// BufSize sets the size of the subscription channel.
func BufSize(n int) SubscriptionOpt {
	return func(s interface{}) error {
		s.(*subSettings).buffer = n
		return nil
	}
}

// DropWhenFull makes Emit skip this subscriber instead of blocking when
// its channel is full. Use it for consumers that must never stall a
// watcher, such as websocket clients.
func DropWhenFull() SubscriptionOpt {
	return func(s interface{}) error {
		s.(*subSettings).dropWhenFull = true
		return nil
	}
}

// MatchField only delivers events whose string field equals value, for
// example MatchField("Account", account).
func MatchField(field, value string) SubscriptionOpt {
	return func(s interface{}) error {
		settings := s.(*subSettings)
		if settings.match == nil {
			settings.match = make(map[string]string)
		}
		settings.match[field] = value
		return nil
	}
}
