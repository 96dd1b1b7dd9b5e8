package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"menuopt/internal/database"
	"menuopt/internal/engine"
	"menuopt/internal/export"
	"menuopt/internal/loader"
	"menuopt/internal/logger"
	"menuopt/internal/session"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0a84ff"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#30d158"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff453a"))
)

const prompt = "> "

const usage = `Commands:
  :views        show every menu view
  :margin N     show dishes with profit margin >= N (50-200)
  :export DIR   write the menu, the chat transcript and a snapshot into DIR
  :history      show this conversation
  :quit         leave
Anything else is sent to the assistant.`

// Options configures a terminal run
type Options struct {
	Columns   loader.Columns
	ExportDir string // used by :export without an argument
	Logger    *logger.Logger
}

type repl struct {
	out     io.Writer
	engine  *engine.Engine
	session *session.Session
	opts    Options
}

// Run reads commands and questions line by line until :quit, EOF or
// cancellation of ctx. The conversation lives only for this run.
func Run(ctx context.Context, in io.Reader, out io.Writer, eng *engine.Engine, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = logger.New(logger.Config{Level: logger.LevelError})
	}
	r := &repl{out: out, engine: eng, session: session.New(), opts: opts}
	opts.Logger.Debug("terminal session started", "session_id", r.session.ID())

	fmt.Fprintln(out, titleStyle.Render("Menu Optimization Assistant"))
	fmt.Fprintln(out, usage)

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := r.handle(line); quit {
			return nil
		}
	}
}

func (r *repl) handle(line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case ":quit", ":exit":
		return true
	case ":help":
		fmt.Fprintln(r.out, usage)
	case ":views":
		r.printViews()
	case ":margin":
		r.printMargin(arg)
	case ":export":
		r.export(arg)
	case ":history":
		r.printHistory()
	default:
		reply, rule := r.session.Ask(r.engine, line)
		r.opts.Logger.Debug("answered question", "rule", rule)
		fmt.Fprintln(r.out, replyStyle.Render(reply))
	}
	return false
}

func (r *repl) printViews() {
	e := r.engine

	var removal [][]string
	for _, v := range e.RemovalCandidates() {
		removal = append(removal, []string{v.Dish, v.WeeklyOrders.String(), v.WasteCost.String(), v.KeepRemove})
	}
	removalHeader := []string{"Dish", "Weekly Orders", "Waste in cost", "Keep/Remove"}
	r.section("Low-performing dishes", removalHeader, removal)

	var waste [][]string
	for _, v := range e.WasteRanking() {
		waste = append(waste, []string{v.Dish, v.Ingredients, v.WasteCost.String()})
	}
	r.section("Ingredient waste analysis", []string{"Dish", "Ingredients", "Waste in cost"}, waste)

	var suggestions [][]string
	for _, v := range e.HighWasteSuggestions() {
		suggestions = append(suggestions, []string{v.Dish, v.Ingredients, v.WasteCost.String(), v.SuggestedDish})
	}
	r.section("Rework suggestions for high-waste dishes", []string{"Dish", "Ingredients", "Waste in cost", "Suggested Dishes"}, suggestions)

	r.printMargin("")

	r.heading("Most wasted ingredient")
	if summary, err := e.MostWastedSummary(); err != nil {
		fmt.Fprintln(r.out, engine.NoWasteText)
	} else {
		fmt.Fprintln(r.out, summary)
	}

	var restock [][]string
	for _, v := range e.RestockReduction() {
		restock = append(restock, []string{v.Dish, v.Ingredients, v.WeeklyOrders.String()})
	}
	r.section("Reduce restock for slow sellers", []string{"Dish", "Ingredients", "Weekly Orders"}, restock)

	r.section("Dishes to remove", removalHeader, removal)

	r.heading("All ingredients in use")
	fmt.Fprintln(r.out, e.AllIngredientsText())
}

func (r *repl) printMargin(arg string) {
	threshold := float64(engine.DefaultMarginThreshold)
	if arg != "" {
		n, err := strconv.ParseFloat(arg, 64)
		if err != nil || math.IsNaN(n) || n < engine.MinMarginThreshold || n > engine.MaxMarginThreshold {
			fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("Threshold must be a number between %d and %d",
				engine.MinMarginThreshold, engine.MaxMarginThreshold)))
			return
		}
		threshold = n
	}

	var rows [][]string
	for _, v := range r.engine.HighMarginDishes(threshold) {
		rows = append(rows, []string{v.Dish, v.Ingredients, v.ProfitMargin.String()})
	}
	title := "High profit margin dishes (>= " + strconv.FormatFloat(threshold, 'f', -1, 64) + ")"
	r.section(title, []string{"Dish", "Ingredients", "Profit Margin"}, rows)
}

func (r *repl) export(dir string) {
	if dir == "" {
		dir = r.opts.ExportDir
	}
	if dir == "" {
		dir = "."
	}
	if err := export.WriteDir(dir, r.engine.Rows(), r.session.Messages(), r.opts.Columns); err != nil {
		r.opts.Logger.Error("export failed", "dir", dir, "error", err)
		fmt.Fprintln(r.out, errorStyle.Render("Export failed: "+err.Error()))
		return
	}
	fmt.Fprintln(r.out, successStyle.Render("Wrote "+export.MenuFileName+", "+export.TranscriptFileName+
		" and "+database.SnapshotFileName+" to "+dir))
}

func (r *repl) printHistory() {
	messages := r.session.Messages()
	if len(messages) == 0 {
		fmt.Fprintln(r.out, "No messages yet.")
		return
	}
	for _, msg := range messages {
		fmt.Fprintf(r.out, "%s: %s\n", msg.Speaker(), msg.Text)
	}
}

func (r *repl) heading(title string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, titleStyle.Render(title))
}

func (r *repl) section(title string, header []string, rows [][]string) {
	r.heading(title)
	if len(rows) == 0 {
		fmt.Fprintln(r.out, "No dishes.")
		return
	}
	fmt.Fprintln(r.out, renderTable(header, rows))
}

// renderTable draws rows as a static table sized to its content
func renderTable(header []string, rows [][]string) string {
	columns := make([]table.Column, len(header))
	for i, title := range header {
		width := lipgloss.Width(title)
		for _, row := range rows {
			if w := lipgloss.Width(row[i]); w > width {
				width = w
			}
		}
		columns[i] = table.Column{Title: title, Width: width}
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = lipgloss.NewStyle()

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(len(rows)+1),
		table.WithStyles(styles),
	)
	return t.View()
}
