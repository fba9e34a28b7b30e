package orbital

type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemFn) *Commands {
	cmd.app.UseSystem(System(system))
	return cmd
}

func (cmd *Commands) Exit() {
	cmd.app.Exit()
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}
