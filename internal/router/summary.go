package router

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// dnsSummary renders a one-line overview of an mDNS datagram for debug
// logging. It never influences forwarding.
func dnsSummary(data []byte) string {
	msg := new(dns.Msg)
	if err := msg.Unpack(data); err != nil {
		return "not a DNS message"
	}

	if !msg.Response {
		var qStrs []string
		for _, q := range msg.Question {
			qStrs = append(qStrs, fmt.Sprintf("%s (%s)", q.Name, dns.TypeToString[q.Qtype]))
		}
		if len(qStrs) > 3 {
			return fmt.Sprintf("questions: [%s ... +%d more]", strings.Join(qStrs[:3], ", "), len(qStrs)-3)
		}
		return "questions: [" + strings.Join(qStrs, ", ") + "]"
	}

	// Combine Answer and Extra records for a better overview
	records := append(msg.Answer, msg.Extra...)
	var aStrs []string
	for _, a := range records {
		aStrs = append(aStrs, fmt.Sprintf("%s (%s)", a.Header().Name, dns.TypeToString[a.Header().Rrtype]))
	}
	if len(aStrs) > 3 {
		return fmt.Sprintf("records: [%s ... +%d more]", strings.Join(aStrs[:3], ", "), len(aStrs)-3)
	}
	if len(aStrs) == 0 {
		return "no records"
	}
	return "records: [" + strings.Join(aStrs, ", ") + "]"
}
