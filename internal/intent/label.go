package intent

import "strings"

// Label 意图标签，封闭集合
type Label string

const (
	Unknown       Label = "unknown"
	Greeting      Label = "greeting"
	Goodbye       Label = "goodbye"
	HowAreYou     Label = "how_are_you"
	Time          Label = "time"
	Date          Label = "date"
	Weather       Label = "weather"
	Joke          Label = "joke"
	Quote         Label = "quote"
	News          Label = "news"
	Help          Label = "help"
	Calculate     Label = "calculate"
	Search        Label = "search"
	Define        Label = "define"
	Reminder      Label = "reminder"
	Music         Label = "music"
	OpenApp       Label = "open_app"
	CloseApp      Label = "close_app"
	EmailInbox    Label = "email_inbox"
	EmailRead     Label = "email_read"
	EmailCompose  Label = "email_compose"
	EmailReply    Label = "email_reply"
	EmailSend     Label = "email_send"
	EmailOrganize Label = "email_organize"
)

var allLabels = []Label{
	Unknown, Greeting, Goodbye, HowAreYou, Time, Date, Weather, Joke, Quote,
	News, Help, Calculate, Search, Define, Reminder, Music, OpenApp, CloseApp,
	EmailInbox, EmailRead, EmailCompose, EmailReply, EmailSend, EmailOrganize,
}

// Labels returns the closed label set in declaration order.
func Labels() []Label {
	out := make([]Label, len(allLabels))
	copy(out, allLabels)
	return out
}

func (l Label) String() string { return string(l) }

func (l Label) Valid() bool {
	for _, known := range allLabels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLabel 宽松解析模型回复中的标签：大小写、空格、连字符、引号都可接受
func ParseLabel(s string) (Label, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`*- ")
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	l := Label(s)
	return l, l.Valid()
}
