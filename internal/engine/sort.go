package engine

import "sort"

func sortStreamInfos(infos []StreamInfo) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
}

func sortSnapshots(snaps []Snapshot) {
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Path < snaps[j].Path })
}
