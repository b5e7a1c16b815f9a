package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) { success.Println(msg) }
func printWarn(msg string)    { warn.Println(msg) }
func printError(msg string)   { danger.Println(msg) }

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asNumber(v any) float64 {
	f, _ := v.(float64)
	return f
}

func money(v any) string {
	n := int64(asNumber(v))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var out []byte
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-" + string(out) + " ₽"
	}
	return string(out) + " ₽"
}

func renderState(snapshot map[string]any) {
	player := asMap(snapshot["player"])
	if player == nil {
		neutral.Println("no player data")
		return
	}

	accent.Printf("%v  [%v]\n", player["name"], player["difficulty"])
	neutral.Printf("Баланс:    %s\n", money(player["cash"]))
	neutral.Printf("Капитал:   %s\n", money(player["netWorth"]))
	neutral.Printf("Уровень:   %v (опыт %v)\n", player["level"], player["experience"])

	props := asSlice(player["properties"])
	if len(props) > 0 {
		accent.Println("\nПортфель:")
		for _, raw := range props {
			p := asMap(raw)
			line := fmt.Sprintf("  %-12v %-30v %-10v %s", short(p["id"]), p["name"], p["strategy"], money(p["currentValue"]))
			if b, _ := p["isUnderRenovation"].(bool); b {
				line += "  🔨"
			}
			neutral.Println(line)
		}
	}

	loans := asSlice(player["loans"])
	if len(loans) > 0 {
		accent.Println("\nКредиты:")
		for _, raw := range loans {
			l := asMap(raw)
			neutral.Printf("  %-12v %-10v остаток %s, платёж %s\n",
				short(l["id"]), l["type"], money(l["remainingPrincipal"]), money(l["monthlyPayment"]))
		}
	}
}

func renderListings(out map[string]any) {
	listings := asSlice(out["listings"])
	if len(listings) == 0 {
		neutral.Println("Каталог пуст. Попробуйте --refresh.")
		return
	}
	accent.Println("Каталог объектов:")
	for _, raw := range listings {
		l := asMap(raw)
		neutral.Printf("  %-12v %-45v %-16v %s (аренда %s)\n",
			short(l["id"]), l["name"], l["district"], money(l["purchasePrice"]), money(l["baseRent"]))
	}
}

func renderEvents(out map[string]any) {
	events := asSlice(out["events"])
	if len(events) == 0 {
		neutral.Println("Журнал пуст.")
		return
	}
	for _, raw := range events {
		e := asMap(raw)
		ts := time.UnixMilli(int64(asNumber(e["timestamp"]))).Format("15:04:05")
		line := fmt.Sprintf("%s  %v", ts, e["message"])
		switch e["type"] {
		case "success":
			success.Println(line)
		case "warning":
			warn.Println(line)
		case "error":
			danger.Println(line)
		default:
			neutral.Println(line)
		}
	}
}

func renderProgression(out map[string]any) {
	accent.Printf("Уровень %v, опыт %v\n", out["level"], out["experience"])

	missions := asSlice(out["missions"])
	if len(missions) > 0 {
		accent.Println("\nМиссии:")
		for _, raw := range missions {
			m := asMap(raw)
			mark := "·"
			if done, _ := m["completed"].(bool); done {
				mark = "✓"
			}
			neutral.Printf("  %s %-30v %v/%v\n", mark, m["title"], int64(asNumber(m["current"])), int64(asNumber(m["target"])))
		}
	}

	achievements := asSlice(out["achievements"])
	if len(achievements) > 0 {
		accent.Println("\nДостижения:")
		unlockedFirst := make([]map[string]any, 0, len(achievements))
		for _, raw := range achievements {
			unlockedFirst = append(unlockedFirst, asMap(raw))
		}
		sort.SliceStable(unlockedFirst, func(i, j int) bool {
			ui, _ := unlockedFirst[i]["unlocked"].(bool)
			uj, _ := unlockedFirst[j]["unlocked"].(bool)
			return ui && !uj
		})
		for _, a := range unlockedFirst {
			if done, _ := a["unlocked"].(bool); done {
				success.Printf("  %v %v\n", a["icon"], a["title"])
			} else {
				neutral.Printf("  🔒 %v\n", a["title"])
			}
		}
	}
}

func renderResult(out map[string]any) {
	ok, _ := out["success"].(bool)
	msg := fmt.Sprintf("%v", out["message"])
	if ok {
		printSuccess(msg)
	} else {
		printWarn(msg)
	}
}

func short(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
