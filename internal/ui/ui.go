package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinefeed/internal/catalog"
	"github.com/desertthunder/cinefeed/internal/routes"
	"github.com/desertthunder/cinefeed/internal/services"
	"github.com/desertthunder/cinefeed/internal/shared"
)

// cardHeight is the number of rows a movie card takes in the list, spacing included.
const cardHeight = 3

// Auth is the account surface the views drive. Implemented by [auth.Gateway].
type Auth interface {
	routes.SessionAccessor
	Register(ctx context.Context, email, password, displayName string) error
	Login(ctx context.Context, email, password string) error
	LoginWithFederatedProvider(ctx context.Context) error
}

// ModelOpts contains the dependencies of a [Model].
type ModelOpts struct {
	Auth      Auth
	Feed      *catalog.Feed
	Navigator *Navigator
	Start     string             // initial path, resolved through the route guard
	Open      func(string) error // opens trailer URLs; defaults to the system browser
	Logger    *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	auth   Auth
	feed   *catalog.Feed
	nav    *Navigator
	open   func(string) error
	logger *log.Logger
	start  string

	route    routes.Route
	width    int
	height   int
	login    form
	register form
	movies   list.Model
	fetching bool
	status   string
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Navigator == nil {
		opts.Navigator = NewNavigator()
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Start == "" {
		opts.Start = routes.Root.String()
	}

	movies := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	movies.SetFilteringEnabled(false)
	movies.SetShowHelp(false)
	movies.DisableQuitKeybindings()

	return &Model{
		ctx:    ctx,
		auth:   opts.Auth,
		feed:   opts.Feed,
		nav:    opts.Navigator,
		open:   opts.Open,
		logger: shared.WithLogger(opts.Logger, "component", "ui"),
		start:  opts.Start,
		login: newForm(
			field{placeholder: "correo electrónico"},
			field{placeholder: "contraseña", secret: true},
		),
		register: newForm(
			field{placeholder: "nombre"},
			field{placeholder: "correo electrónico"},
			field{placeholder: "contraseña", secret: true},
		),
		movies:  movies,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Route returns the view being rendered.
func (m *Model) Route() routes.Route { return m.route }

// Init resolves the start path and begins ticking the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.navigate(m.start))
}

// navigate renders the route path resolves to after redirects and the session guard.
func (m *Model) navigate(path string) tea.Cmd {
	m.route = routes.Resolve(path, m.auth)
	m.logger.Debug("navigate", "path", path, "route", m.route)

	switch m.route {
	case routes.Catalog:
		m.feed.Reset()
		m.refresh()
		return m.mount()
	case routes.Login:
		m.login.reset()
	case routes.Register:
		m.register.reset()
	}
	return nil
}

// applyNavigation follows the latest navigation issued by a finished command.
func (m *Model) applyNavigation() tea.Cmd {
	if route, ok := m.nav.take(); ok {
		return m.navigate(route.String())
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.movies.SetSize(max(msg.Width-4, 0), max(msg.Height-6, 0))
		return m, m.maybeLoadNext()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m, m.handleMsg(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.route {
		case routes.Login:
			return m, m.handleLoginKeys(msg)
		case routes.Register:
			return m, m.handleRegisterKeys(msg)
		case routes.Catalog:
			return m, m.handleCatalogKeys(msg)
		default:
			return m, m.handleNotFoundKeys(msg)
		}
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgAuthDone:
		err := msg.err()
		if m.route == routes.Register {
			m.register.busy = false
			if err != nil {
				m.register.err = describeError(err)
				return nil
			}
			cmd := m.applyNavigation()
			m.status = "Cuenta creada. Inicia sesión para continuar."
			return cmd
		}

		m.login.busy = false
		m.status = ""
		if err != nil {
			m.login.err = describeError(err)
			return nil
		}
		return m.applyNavigation()

	case MsgFeedMounted, MsgPageLoaded:
		m.fetching = false
		if err := msg.err(); err != nil && !isGateError(err) {
			m.logger.Warn("feed fetch failed", "error", err)
		}
		m.refresh()
		return m.maybeLoadNext()

	case MsgTrailerResolved:
		data := msg.data.(struct {
			trailer catalog.Trailer
			err     error
		})
		if data.err != nil && !errors.Is(data.err, catalog.ErrStale) {
			m.logger.Warn("trailer resolution failed", "error", data.err)
		}
		return nil

	case MsgLoggedOut:
		if err := msg.err(); err != nil {
			m.logger.Error("logout failed", "error", err)
		}
		m.fetching = false
		cmd := m.applyNavigation()
		if err := msg.err(); err != nil {
			m.status = "No se pudo cerrar la sesión guardada."
		}
		return cmd
	}
	return nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) tea.Cmd {
	if m.login.busy {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.submit):
		m.login.busy = true
		m.login.err = ""
		email, password := m.login.value(0), m.login.value(1)
		return func() tea.Msg {
			return authDoneMsg(m.auth.Login(m.ctx, email, password))
		}
	case key.Matches(msg, m.keys.google):
		m.login.busy = true
		m.login.err = ""
		m.status = "Continúa el inicio de sesión en el navegador..."
		return func() tea.Msg {
			return authDoneMsg(m.auth.LoginWithFederatedProvider(m.ctx))
		}
	case key.Matches(msg, m.keys.register):
		m.status = ""
		return m.navigate(routes.Register.String())
	case msg.String() == "tab" || msg.String() == "down":
		return m.login.next()
	case msg.String() == "shift+tab" || msg.String() == "up":
		return m.login.prev()
	}
	return m.login.update(msg)
}

func (m *Model) handleRegisterKeys(msg tea.KeyMsg) tea.Cmd {
	if m.register.busy {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.submit):
		m.register.busy = true
		m.register.err = ""
		name, email, password := m.register.value(0), m.register.value(1), m.register.value(2)
		return func() tea.Msg {
			return authDoneMsg(m.auth.Register(m.ctx, email, password, name))
		}
	case key.Matches(msg, m.keys.back):
		return m.navigate(routes.Login.String())
	case msg.String() == "tab" || msg.String() == "down":
		return m.register.next()
	case msg.String() == "shift+tab" || msg.String() == "up":
		return m.register.prev()
	}
	return m.register.update(msg)
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) tea.Cmd {
	snap := m.feed.Snapshot()

	if snap.Trailer.Open {
		switch {
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
			m.feed.CloseTrailer()
		case key.Matches(msg, m.keys.open):
			if url := snap.Trailer.URL(); url != "" {
				if err := m.open(url); err != nil {
					m.logger.Warn("failed to open trailer", "url", url, "error", err)
				}
			}
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.logout):
		return func() tea.Msg { return loggedOutMsg(m.feed.Logout(m.ctx)) }
	case key.Matches(msg, m.keys.filter):
		if err := m.feed.SetFilter(snap.Filter.Next()); err != nil {
			m.logger.Warn("failed to change category", "error", err)
		}
		m.refresh()
		m.movies.ResetSelected()
		return m.maybeLoadNext()
	case key.Matches(msg, m.keys.reload) && snap.Err != "":
		m.feed.Reset()
		m.refresh()
		return m.mount()
	case key.Matches(msg, m.keys.trailer):
		item, ok := m.movies.SelectedItem().(movieItem)
		if !ok {
			return nil
		}
		return tea.Batch(
			func() tea.Msg {
				trailer, err := m.feed.ResolveTrailer(m.ctx, item.movie)
				return trailerResolvedMsg(trailer, err)
			},
			m.spinner.Tick,
		)
	}

	var cmd tea.Cmd
	m.movies, cmd = m.movies.Update(msg)
	return tea.Batch(cmd, m.maybeLoadNext())
}

func (m *Model) handleNotFoundKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.submit), key.Matches(msg, m.keys.back):
		return m.navigate(routes.Root.String())
	}
	return nil
}

func (m *Model) mount() tea.Cmd {
	m.fetching = true
	return func() tea.Msg { return feedMountedMsg(m.feed.Mount(m.ctx)) }
}

// maybeLoadNext requests the next page when the cursor is within the scroll threshold of the end of the list.
func (m *Model) maybeLoadNext() tea.Cmd {
	if m.route != routes.Catalog || m.fetching {
		return nil
	}
	snap := m.feed.Snapshot()
	if !snap.HasMore || snap.Loading || snap.Err != "" {
		return nil
	}

	offset := m.movies.Index() * cardHeight
	content := len(m.movies.Items()) * cardHeight
	if !m.feed.NearBottom(offset, m.movies.Height(), content) {
		return nil
	}

	m.fetching = true
	return func() tea.Msg { return pageLoadedMsg(m.feed.LoadNext(m.ctx)) }
}

// refresh rebuilds the movie cards from the feed snapshot.
func (m *Model) refresh() {
	snap := m.feed.Snapshot()
	items := make([]list.Item, len(snap.Movies))
	for i, movie := range snap.Movies {
		items[i] = movieItem{movie: movie, genres: snap.GenreNames(movie)}
	}
	m.movies.SetItems(items)
	m.movies.Title = fmt.Sprintf("Cartelera · %s", snap.Filter.Label())
}

// View renders the UI based on the current route.
func (m *Model) View() string {
	var body string
	switch m.route {
	case routes.Login:
		body = m.renderLogin()
	case routes.Register:
		body = m.renderRegister()
	case routes.Catalog:
		body = m.renderCatalog()
	default:
		body = m.renderNotFound()
	}
	return body
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	return styles.ok.Render(m.status) + "\n\n"
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("cinefeed · Iniciar sesión")
	busy := ""
	if m.login.busy {
		busy = m.spinner.View() + " Iniciando sesión...\n\n"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.submit, m.keys.google, m.keys.register})
	return fmt.Sprintf("%s\n%s%s\n%s%s", title, m.renderStatus(), m.login.view(), busy, helpView)
}

func (m *Model) renderRegister() string {
	title := styles.title.Render("cinefeed · Crear cuenta")
	busy := ""
	if m.register.busy {
		busy = m.spinner.View() + " Creando cuenta...\n\n"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.submit, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s%s", title, m.register.view(), busy, helpView)
}

func (m *Model) renderCatalog() string {
	snap := m.feed.Snapshot()

	if snap.Trailer.Open {
		return m.renderTrailer(snap.Trailer)
	}

	if snap.Err != "" {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.logout, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(snap.Err), helpView)
	}

	if len(snap.Movies) == 0 {
		if snap.Loading {
			return fmt.Sprintf("%s Cargando películas...", m.spinner.View())
		}
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.filter, m.keys.logout, m.keys.quit})
		return fmt.Sprintf("%s\n\nNo hay películas para %s.\n\n%s",
			styles.title.Render(m.movies.Title), snap.Filter.Label(), helpView)
	}

	footer := fmt.Sprintf("%d de %d películas · página %d", len(snap.Movies), snap.Total, snap.Page)
	if snap.Loading {
		footer = fmt.Sprintf("%s %s", m.spinner.View(), footer)
	} else if !snap.HasMore {
		footer += " · fin de la cartelera"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.trailer, m.keys.filter, m.keys.logout, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", m.movies.View(), styles.help.Render(footer), helpView)
}

func (m *Model) renderTrailer(trailer catalog.Trailer) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Tráiler · " + trailer.Title))
	b.WriteString("\n")

	var helpKeys []key.Binding
	switch trailer.Status {
	case catalog.TrailerFound:
		fmt.Fprintf(&b, "%s\n\n", trailer.URL())
		helpKeys = []key.Binding{m.keys.open, m.keys.back}
	case catalog.TrailerNotFound:
		b.WriteString(styles.err.Render("No se encontró un tráiler para esta película."))
		b.WriteString("\n\n")
		helpKeys = []key.Binding{m.keys.back}
	default:
		fmt.Fprintf(&b, "%s Buscando tráiler...\n\n", m.spinner.View())
		helpKeys = []key.Binding{m.keys.back}
	}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return styles.modal.Render(b.String())
}

func (m *Model) renderNotFound() string {
	title := styles.title.Render("404 · Página no encontrada")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.quit})
	return fmt.Sprintf("%s\nLa página que buscas no existe.\n\n%s", title, helpView)
}

func isGateError(err error) bool {
	return errors.Is(err, catalog.ErrBusy) ||
		errors.Is(err, catalog.ErrExhausted) ||
		errors.Is(err, catalog.ErrHalted) ||
		errors.Is(err, catalog.ErrStale) ||
		errors.Is(err, catalog.ErrClosed)
}

// describeError converts gateway errors into a message for the forms.
func describeError(err error) string {
	var idErr *services.IdentityError
	switch {
	case errors.As(err, &idErr):
		switch idErr.Code {
		case "EMAIL_EXISTS":
			return "El correo ya está registrado."
		case "INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "EMAIL_NOT_FOUND":
			return "Correo o contraseña incorrectos."
		case "WEAK_PASSWORD":
			return "La contraseña debe tener al menos 6 caracteres."
		case "INVALID_EMAIL":
			return "El correo no es válido."
		}
		return idErr.Error()
	case errors.Is(err, shared.ErrInvalidInput):
		return "Completa todos los campos."
	case errors.Is(err, shared.ErrAuthCancelled):
		return "Inicio de sesión cancelado."
	case errors.Is(err, shared.ErrTimeout):
		return "El inicio de sesión expiró. Intenta de nuevo."
	case errors.Is(err, shared.ErrMissingCredentials):
		return "El inicio de sesión con Google no está configurado."
	default:
		return err.Error()
	}
}
