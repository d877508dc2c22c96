package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"busstops/internal/routes"
	"busstops/internal/schedule"
	"busstops/internal/stops"
	"busstops/internal/transit"
)

type Metrics interface {
	RouteSearchInc()
	SessionOpened()
	SessionClosed()
}

// Console is the line oriented front end: a route search screen and, once a
// route is selected, that route's stop screen.
type Console struct {
	out      io.Writer
	catalog  *routes.Catalog
	notifier stops.Notifier
	metrics  Metrics
	stopOpts []stops.Option
	prompt   string

	session *stops.Manager // nil on the search screen
}

type Option func(*Console)

// WithNotifier adds a notifier that receives every add/save acknowledgment
// next to the console's own output.
func WithNotifier(n stops.Notifier) Option { return func(c *Console) { c.notifier = n } }

func WithMetrics(m Metrics) Option { return func(c *Console) { c.metrics = m } }

// WithStopOptions is passed to every stop session the console opens.
func WithStopOptions(opts ...stops.Option) Option {
	return func(c *Console) { c.stopOpts = append(c.stopOpts, opts...) }
}

func WithPrompt(p string) Option { return func(c *Console) { c.prompt = p } }

func New(catalog *routes.Catalog, out io.Writer, opts ...Option) *Console {
	c := &Console{out: out, catalog: catalog}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns the open stop session, nil on the search screen.
func (c *Console) Session() *stops.Manager { return c.session }

// Run reads commands from in until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	if c.session == nil {
		c.showSearch("")
	}
	// no line length limit: a schedule may be arbitrarily long
	r := bufio.NewReader(in)
	for {
		if c.prompt != "" {
			fmt.Fprint(c.out, c.prompt)
		}
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if quit := c.Execute(strings.TrimRight(line, "\r\n")); quit {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the user asked to quit.
func (c *Console) Execute(line string) bool {
	// raw keeps the text after the command word untouched for save
	cmd, raw, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	arg := strings.TrimSpace(raw)
	log.Debug().Str("cmd", cmd).Bool("stopScreen", c.session != nil).Msg("console command")

	switch cmd {
	case "":
		return false
	case "quit", "exit":
		c.closeSession()
		return true
	case "help":
		c.help()
		return false
	}

	if c.session == nil {
		c.searchCommand(cmd, arg)
	} else {
		c.stopCommand(cmd, arg, raw)
	}
	return false
}

func (c *Console) searchCommand(cmd, arg string) {
	switch cmd {
	case "search":
		c.showSearch(arg)
	case "select":
		r, ok := c.catalog.Find(arg)
		if !ok {
			fmt.Fprintf(c.out, "Rota não encontrada: %s\n", arg)
			return
		}
		c.Open(r)
	case "mic":
		// voice input is a placeholder
		fmt.Fprintln(c.out, "Microfone: Funcionalidade de voz ativada.")
	default:
		c.unknown(cmd)
	}
}

func (c *Console) stopCommand(cmd, arg, raw string) {
	switch cmd {
	case "list":
		c.listStops()
	case "add":
		name := strings.TrimSpace(arg)
		if _, err := c.session.AddStop(name); err != nil {
			// blank names are ignored, the user simply retries
			log.Debug().Err(err).Msg("add stop rejected")
		}
	case "edit":
		id := transit.BusStopID(arg)
		if err := c.session.BeginEdit(id); err != nil {
			if errors.Is(err, stops.ErrUnknownStop) {
				fmt.Fprintf(c.out, "Ponto não encontrado: %s\n", arg)
				return
			}
			fmt.Fprintf(c.out, "Erro: %v\n", err)
			return
		}
		s, _ := c.session.Stop(id)
		fmt.Fprintf(c.out, "Editando %s (%s): %s\n", s.ID, s.Name, schedule.Format(s.Times))
	case "save":
		id, ok := c.session.Editing()
		if !ok {
			fmt.Fprintln(c.out, "Nenhum ponto em edição. Use: edit <id>")
			return
		}
		if err := c.session.SaveTimes(id, raw); err != nil {
			fmt.Fprintf(c.out, "Erro: %v\n", err)
		}
	case "cancel":
		if _, ok := c.session.Editing(); ok {
			fmt.Fprintln(c.out, "Edição cancelada.")
		}
		c.session.CancelEdit()
	case "back":
		c.closeSession()
		c.showSearch("")
	case "mic":
		fmt.Fprintln(c.out, "Microfone: Funcionalidade de voz ativada.")
	default:
		c.unknown(cmd)
	}
}

// Open starts a fresh stop session for r, replacing any open one.
func (c *Console) Open(r transit.Route) {
	c.closeSession()
	opts := append([]stops.Option{}, c.stopOpts...)
	opts = append(opts, stops.WithNotifier(stops.Notifiers{ack{c.out}, c.notifier}))
	c.session = stops.NewSession(r.Context(), opts...)
	if c.metrics != nil {
		c.metrics.SessionOpened()
	}
	log.Info().Str("route", r.Number).Msg("stop session opened")
	fmt.Fprintf(c.out, "Rota: %s - %s\n", r.Number, r.Name)
	c.listStops()
}

func (c *Console) closeSession() {
	if c.session == nil {
		return
	}
	log.Info().Str("route", c.session.Route().RouteNumber).Msg("stop session closed")
	c.session = nil
	if c.metrics != nil {
		c.metrics.SessionClosed()
	}
}

func (c *Console) showSearch(text string) {
	if c.metrics != nil && text != "" {
		c.metrics.RouteSearchInc()
	}
	if text == "" {
		fmt.Fprintln(c.out, "Digite ou fale o número do ônibus")
	}
	found := c.catalog.Search(text)
	if len(found) == 0 {
		fmt.Fprintln(c.out, "Nenhuma rota encontrada.")
		return
	}
	for _, r := range found {
		fmt.Fprintf(c.out, "%s - %s\n", r.Number, r.Name)
	}
}

func (c *Console) listStops() {
	fmt.Fprintln(c.out, "Pontos Adicionados e Horários")
	all := c.session.Stops()
	if len(all) == 0 {
		fmt.Fprintln(c.out, "Nenhum ponto de ônibus adicionado.")
		return
	}
	editing, _ := c.session.Editing()
	for _, s := range all {
		marker := ""
		if s.ID == editing {
			marker = " (editando)"
		}
		fmt.Fprintf(c.out, "[%s] %s%s\n", s.ID, s.Name, marker)
		if len(s.Times) == 0 {
			fmt.Fprintln(c.out, "    sem horários")
		}
		for _, t := range s.Times {
			fmt.Fprintf(c.out, "    %s\n", formatRecord(t))
		}
	}
}

func formatRecord(r transit.ArrivalRecord) string {
	if r.Status.Highlighted() {
		return fmt.Sprintf("%s - %s !", r.Time, r.Status)
	}
	return fmt.Sprintf("%s - %s", r.Time, r.Status)
}

func (c *Console) help() {
	if c.session == nil {
		fmt.Fprintln(c.out, "Comandos: search [texto], select <número>, mic, help, quit")
		return
	}
	fmt.Fprintln(c.out, "Comandos: list, add <nome>, edit <id>, save <horários>, cancel, back, help, quit")
}

func (c *Console) unknown(cmd string) {
	fmt.Fprintf(c.out, "Comando desconhecido: %s (digite help)\n", cmd)
}

// ack prints the acknowledgments the original app showed as alerts.
type ack struct{ out io.Writer }

func (a ack) StopAdded(_ transit.RouteContext, s transit.BusStop) {
	fmt.Fprintf(a.out, "Ponto Adicionado: O ponto %q foi adicionado à rota.\n", s.Name)
}

func (a ack) TimesSaved(_ transit.RouteContext, s transit.BusStop) {
	fmt.Fprintf(a.out, "Horários Salvos: %d horário(s) salvos para %q.\n", len(s.Times), s.Name)
	if n := schedule.EmptyTimes(s.Times); n > 0 {
		fmt.Fprintf(a.out, "Atenção: %d horário(s) vazio(s).\n", n)
	}
}
