package intent

const (
	mathExpr   = `(\d+(?:\.\d+)?(?:\s*[-+*/x]\s*\d+(?:\.\d+)?)+)`
	latinWords = `([a-z]+(?: [a-z]+)?)`
)

func englishTable() *TableBuilder {
	return NewTableBuilder("en").
		Substitute(`what's`, "what is").
		Substitute(`how's`, "how is").
		Substitute(`\be-mail`, "email").
		Substitute(`\bplus\b`, "+").
		Substitute(`\bminus\b`, "-").
		Substitute(`\b(?:times|multiplied by)\b`, "*").
		Substitute(`\bdivided by\b`, "/").
		Intent(Greeting, `\b(hello|hi|hey)\b`, `good (morning|afternoon|evening)`, `nice to meet you`, `what is up`).
		Intent(HowAreYou, `how are you`, `how is it going`, `how do you feel`, `are you (okay|ok|fine)`, `how is life`).
		Intent(Goodbye, `\b(bye|goodbye)\b`, `see you( later)?`, `good night`, `that is all`).
		Intent(Time, `what time`, `current time`, `time (now|please)`, `tell me the time`, `what is the time`).
		Intent(Date, `what is the date`, `what day is it`, `today's date`, `current date`, `what date`).
		Intent(Weather, `weather`, `temperature`, `is it (raining|sunny|cold|hot)`, `forecast`).
		Intent(Joke, `\bjokes?\b`, `make me laugh`, `something funny`).
		Intent(Quote, `\bquote\b`, `inspire me`, `motivat`).
		Intent(News, `\bnews\b`, `headlines`, `what is happening`).
		Intent(Help, `\bhelp\b`, `what can you do`, `how does this work`).
		Intent(Calculate, `calculat`, `\d+\s*[-+*/x]\s*\d+`, `how much is`, `what is \d+`).
		Intent(Search, `\bsearch\b`, `look up`, `google`, `find information`).
		Intent(Define, `\bdefine\b`, `definition of`, `what does .+ mean`, `meaning of`).
		Intent(Reminder, `remind me`, `set (a )?reminder`, `\breminder\b`).
		Intent(Music, `\bmusic\b`, `\bsong\b`, `play something`, `play some`).
		Intent(OpenApp, `\b(open|launch|start) (the )?(app|application|browser|calculator|terminal|settings|notepad)`).
		Intent(CloseApp, `\b(close|quit|exit) (the )?(app|application|browser|calculator|terminal|settings|notepad)`).
		Intent(EmailInbox, `read.*email`, `check.*(email|mail|inbox)`, `(open|show).*(email|inbox)`, `\bunread\b`, `new emails`, `list.*emails`).
		Intent(EmailRead, `read.*email.*from`, `\bemail from\b`, `read (the )?(next|first|latest) (email|message)`).
		Intent(EmailCompose, `(compose|write|draft|create) (an? )?(new )?(email|message)`, `new email to`).
		Intent(EmailReply, `\breply\b`, `respond to`, `answer (the|this|that) (email|message)`).
		Intent(EmailSend, `send (the |an? )?(email|message|reply|it)`).
		Intent(EmailOrganize, `(organi[sz]e|sort|clean up|archive).*(email|inbox|mail)`).
		Entity(EntityEmailCount, `(\d+) (?:new |unread )?(?:emails?|messages?)`).
		Entity(EntitySenderName, `(?:email|message|mail)s? from `+latinWords).
		Entity(EntityCityName, `weather (?:in|for|at) `+latinWords, `temperature (?:in|for|at) `+latinWords).
		Entity(EntityMathExpression, mathExpr)
}
