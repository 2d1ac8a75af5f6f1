package intent

// Derja (Tunisian Arabic) is often typed or recognized in Latin script with
// digits standing in for Arabic letters. Known words are rewritten to Arabic
// script first; the remaining digit letters are mapped afterwards. Patterns
// are written against the normalized Arabic script.
func tunisianTable() *TableBuilder {
	b := NewTableBuilder("tn").
		Substitute(`\ba[a3]?b3[a3]th`, "أبعت").
		Substitute(`\ba[a3]?7[a3e]?s[a3e]?b`, "أحسب").
		Substitute(`\ba[a3]?3[a3]ni`, "أعطني").
		Substitute(`\ba[a3]?tini`, "أعطيني").
		Substitute(`\bch[a3]ndi`, "شنادي").
		Substitute(`\bch[a3]f\b`, "شوف").
		Substitute(`\ba[a3]?hla`, "أهلا").
		Substitute(`\bwin[a3e]k`, "وينك").
		Substitute(`\ba[a3]?ktob`, "أكتب").
		Substitute(`\ba[a39]?ra\b`, "أقرا").
		Substitute(`\b7[a3]?dher`, "حضر").
		Substitute(`\bn[a3]zz[a3e]m`, "نظم").
		Substitute(`\br[a3]tt[a3e]b`, "رتب").
		Substitute(`\bwa[a3]?9t`, "وقت").
		Substitute(`\bsa3[a3]?a`, "ساعة").
		Substitute(`\bta(?:[a3]|[a3]?[9q])s\b`, "طقس").
		Substitute(`\bjaw[a3]b`, "جواب").
		Substitute(`\bjaw\b`, "جو").
		Substitute(`\bn[a3o]kt[a3]a?`, "نكتة").
		Substitute(`\bemails?\b`, "إيميل").
		Substitute(`\bbariid\b`, "بريد").
		Substitute(`\binbox\b`, "إنبوكس").
		Substitute(`\brep[o0]nse`, "ريسبونس").
		Substitute(`\br[a3]dd?\b`, "رد").
		Substitute(`\bdraft\b`, "درافت").
		Substitute(`\ba[a3]?ml\b`, "أعمل").
		Substitute(`\bb[a3]y\b`, "باي").
		Substitute(`\bj[a3]y\b`, "جاي").
		Substitute(`\bba3[a3]?d\b`, "بعد").
		Substitute(`\ba[a3]?khir\b`, "آخر").
		Substitute(`\bmin\b`, "من").
		Substitute(`\bf[a3e]l\b`, "في")

	for digit, letter := range map[rune]string{
		'3': "ع", '7': "ح", '9': "ق", '2': "أ", '5': "خ",
		'6': "ط", '8': "غ", '4': "ش", '0': "ص", '1': "ض",
	} {
		b.Letter(digit, letter)
	}

	const mail = `(إيميل|إنبوكس|بريد)`
	const reply = `(ريسبونس|رد|جواب|درافت)`

	return b.
		Intent(Greeting, `أهلا`, `أهلا.*وينك`, `سلام`, `صباح الخير`, `مساء الخير`).
		Intent(HowAreYou, `كيفاش (حالك|الحال|أنت)`, `واش أنت بخير`, `لاباس`).
		Intent(Goodbye, `باي`, `أهلا.*باي`, `بالسلامة`).
		Intent(Time, `شنادي.*(وقت|ساعة)`, `أعطني.*(وقت|ساعة)`, `كماش الساعة`, `قداش الساعة`, `واش الوقت`, `وريني الوقت`).
		Intent(Date, `واش التاريخ`, `قداش التاريخ`, `تاريخ اليوم`, `أي يوم اليوم`).
		Intent(Weather, `شنادي.*طقس`, `أعطني.*طقس`, `طقس.*جو`, `(كيفاش|واش) الطقس`, `درجة الحرارة`).
		Intent(Joke, `(أعطني|شنادي).*نكتة`, `نكتة`).
		Intent(Quote, `حكمة`).
		Intent(News, `أخبار`).
		Intent(Help, `أعطني`, `(أعطني|شنادي).*أعمل`, `عاوني`).
		Intent(Calculate, `أحسب`, `أحسب.*لي`).
		Intent(Search, `لوج على`, `ابحث على`).
		Intent(Reminder, `فكرني`).
		Intent(Music, `شغل.*(موسيقى|غناية)`, `موسيقى`).
		Intent(EmailInbox, `(أعطيني|شنادي|شوف).*`+mail, `وريني.*بريد`, `صندوق البريد`, `تحقق من.*بريد`).
		Intent(EmailRead, `أقرا.*`+mail, `أقرا.*`+mail+`.*(جاي|بعد|آخر)`, `اقرا.*بريد`).
		Intent(EmailCompose, `أكتب.*(إيميل|بريد|رسالة)`, `اكتب (بريد|رسالة)`).
		Intent(EmailReply, `حضر.*`+reply, `أعطيني.*(ريسبونس|رد|جواب)`, `أكتب.*(ريسبونس|رد)`).
		Intent(EmailSend, `أبعت.*(إيميل|بريد|ريسبونس|رد|جواب)`, `أبعتها`, `أرسل.*(بريد|رسالة)`).
		Intent(EmailOrganize, `(نظم|رتب).*`+mail).
		Entity(EntityEmailCount, `(\d+).*`+mail).
		Entity(EntitySenderName, `من (\p{Arabic}+|[a-z]+)`).
		Entity(EntityCityName, `في (\p{Arabic}+|[a-z]+)`).
		Entity(EntityMathExpression, mathExpr).
		Example(EmailInbox, "a3tini email").
		Example(EmailReply, "7adher reponse").
		Example(EmailSend, "ab3ath email").
		Example(EmailRead, "a9ra email").
		Example(EmailOrganize, "nazzam email").
		Example(Help, "a3ani").
		Example(Time, "chandi wa9t").
		Example(Weather, "chandi ta9s").
		Example(Joke, "a3ani nokta").
		Example(Calculate, "a7seb").
		Example(Greeting, "ahla winek").
		Example(Goodbye, "bay")
}

// DefaultTables builds the tables shipped for en, ar and tn.
func DefaultTables() (map[string]*Table, error) {
	tables := make(map[string]*Table)
	for _, b := range []*TableBuilder{englishTable(), arabicTable(), tunisianTable()} {
		t, err := b.Build()
		if err != nil {
			return nil, err
		}
		tables[t.Language()] = t
	}
	return tables, nil
}
