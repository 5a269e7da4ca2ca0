//go:build !windows

package game

func (g *Game) activate() bool {
	return g.activateByPid()
}
